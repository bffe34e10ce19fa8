package service

import (
	"context"
	"testing"

	"github.com/goalpost-app/goalpost/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMilestoneFiresAtThreshold(t *testing.T) {
	e := newEngine(t)
	goal := e.addGoal(t, "u1", 14)
	e.logDays(t, goal, 6, 5, 4, 3, 2, 1, 0)
	e.addMember(t, "u1", model.ChannelSetEmail, model.ConsentGranted, true)

	result, err := e.milestone.Process(context.Background(), goal, e.fix.LogEntries(), asOf)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Fired)
	assert.Equal(t, 7, result.StreakLength)
	assert.Equal(t, model.OutcomeSent, result.Outcome)
	assert.Equal(t, 1, e.email.callCount())

	events, err := e.fix.Milestones().ByGoal(goal.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.OutcomeSent, events[0].Outcome)
}

func TestMilestoneSilentBetweenThresholds(t *testing.T) {
	e := newEngine(t)
	goal := e.addGoal(t, "u1", 14)
	// Eight-day streak: past seven, not yet thirty.
	e.logDays(t, goal, 7, 6, 5, 4, 3, 2, 1, 0)
	e.addMember(t, "u1", model.ChannelSetEmail, model.ConsentGranted, true)

	result, err := e.milestone.Process(context.Background(), goal, e.fix.LogEntries(), asOf)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Zero(t, e.email.callCount())
}

func TestMilestoneNeverRefiresSameLength(t *testing.T) {
	e := newEngine(t)
	goal := e.addGoal(t, "u1", 30)
	e.addMember(t, "u1", model.ChannelSetEmail, model.ConsentGranted, true)

	// First seven-day streak.
	e.logDays(t, goal, 16, 15, 14, 13, 12, 11, 10)
	first, err := e.milestone.Process(context.Background(), goal, e.fix.LogEntries(), asOf.AddDate(0, 0, -10))
	require.NoError(t, err)
	require.True(t, first.Fired)

	// Streak broken, then rebuilt to seven. The length already fired.
	e.logDays(t, goal, 6, 5, 4, 3, 2, 1, 0)
	second, err := e.milestone.Process(context.Background(), goal, e.fix.LogEntries(), asOf)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.False(t, second.Fired)
	assert.Equal(t, 1, e.email.callCount())
}

func TestMilestoneWithoutConsentedMembers(t *testing.T) {
	e := newEngine(t)
	goal := e.addGoal(t, "u1", 14)
	e.logDays(t, goal, 6, 5, 4, 3, 2, 1, 0)
	e.addMember(t, "u1", model.ChannelSetEmail, model.ConsentPending, true)

	result, err := e.milestone.Process(context.Background(), goal, e.fix.LogEntries(), asOf)
	require.NoError(t, err)
	assert.True(t, result.Fired)
	assert.Equal(t, model.OutcomeSkippedNoConsent, result.Outcome)
	assert.Zero(t, e.email.callCount())
}
