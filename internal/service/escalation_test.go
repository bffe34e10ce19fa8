package service

import (
	"context"
	"testing"

	"github.com/goalpost-app/goalpost/internal/model"
	"github.com/goalpost-app/goalpost/internal/service/dispatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		missed int
		tier   string
		due    bool
	}{
		{0, "", false},
		{-1, "", false},
		{1, model.TierSelfOutreach, true},
		{2, model.TierSupportNotify, true},
		{3, model.TierSupportCheckin, true},
		{4, model.TierSupportCheckin, true},
		{30, model.TierSupportCheckin, true},
	}

	for _, tt := range tests {
		tier, due := TierFor(tt.missed)
		assert.Equal(t, tt.tier, tier, "missed=%d", tt.missed)
		assert.Equal(t, tt.due, due, "missed=%d", tt.missed)
	}
}

func TestProcessSelfOutreachGoesToOwner(t *testing.T) {
	e := newEngine(t)
	e.addContact(t, "u1")
	goal := e.addGoal(t, "u1", 5)
	e.addMember(t, "u1", model.ChannelSetEmail, model.ConsentGranted, true)

	result, err := e.escalation.Process(context.Background(), goal, asOf, 1)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Reserved)
	assert.Equal(t, model.TierSelfOutreach, result.Tier)
	assert.Equal(t, model.OutcomeSent, result.Outcome)

	// The owner is texted; support members stay out of tier one.
	assert.Equal(t, []string{"+15550100"}, e.text.calls)
	assert.Zero(t, e.email.callCount())

	records, err := e.fix.Escalations().ByGoal(goal.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.OutcomeSent, records[0].Outcome)
	assert.Equal(t, 1, records[0].MissedDays)
}

func TestProcessSupportTiersGoToMembers(t *testing.T) {
	e := newEngine(t)
	e.addContact(t, "u1")
	goal := e.addGoal(t, "u1", 5)
	e.addMember(t, "u1", model.ChannelSetEmail, model.ConsentGranted, true)

	result, err := e.escalation.Process(context.Background(), goal, asOf, 2)
	require.NoError(t, err)
	assert.Equal(t, model.TierSupportNotify, result.Tier)
	assert.Equal(t, model.OutcomeSent, result.Outcome)
	assert.Equal(t, 1, e.email.callCount())

	// Day three and every day after: one check-in per day.
	result, err = e.escalation.Process(context.Background(), goal, asOf.AddDate(0, 0, 1), 3)
	require.NoError(t, err)
	assert.Equal(t, model.TierSupportCheckin, result.Tier)

	result, err = e.escalation.Process(context.Background(), goal, asOf.AddDate(0, 0, 2), 4)
	require.NoError(t, err)
	assert.Equal(t, model.TierSupportCheckin, result.Tier)
	assert.True(t, result.Reserved)

	records, err := e.fix.Escalations().ByGoal(goal.ID)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestProcessIdempotentWithinDay(t *testing.T) {
	e := newEngine(t)
	e.addContact(t, "u1")
	goal := e.addGoal(t, "u1", 5)

	first, err := e.escalation.Process(context.Background(), goal, asOf, 1)
	require.NoError(t, err)
	require.True(t, first.Reserved)

	second, err := e.escalation.Process(context.Background(), goal, asOf, 1)
	require.NoError(t, err)
	assert.False(t, second.Reserved)

	// The rerun sent nothing.
	assert.Equal(t, 1, e.text.callCount())
}

func TestProcessNoConsentSkips(t *testing.T) {
	e := newEngine(t)
	e.addContact(t, "u1")
	goal := e.addGoal(t, "u1", 5)
	e.addMember(t, "u1", model.ChannelSetEmail, model.ConsentPending, true)
	e.addMember(t, "u1", model.ChannelSetText, model.ConsentDeclined, false)

	result, err := e.escalation.Process(context.Background(), goal, asOf, 2)
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeSkippedNoConsent, result.Outcome)
	assert.Equal(t, 2, result.SkippedMembers)
	assert.Zero(t, e.email.callCount())
	assert.Zero(t, e.text.callCount())

	// The skip still owns the day's slot.
	records, err := e.fix.Escalations().ByGoal(goal.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.OutcomeSkippedNoConsent, records[0].Outcome)
}

func TestProcessDeliveryFailureKeepsSlot(t *testing.T) {
	e := newEngine(t)
	e.addContact(t, "u1")
	goal := e.addGoal(t, "u1", 5)
	e.addMember(t, "u1", model.ChannelSetEmail, model.ConsentGranted, true)
	e.email.setFail(dispatch.Transientf("provider 503"))

	result, err := e.escalation.Process(context.Background(), goal, asOf, 2)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeFailed, result.Outcome)
	assert.True(t, result.DeliveryFailure)

	// A rerun does not retry; the slot is taken.
	rerun, err := e.escalation.Process(context.Background(), goal, asOf, 2)
	require.NoError(t, err)
	assert.False(t, rerun.Reserved)
	assert.Equal(t, 1, e.email.callCount())
}

func TestSupportPermanentFailureSkipsVoiceFallback(t *testing.T) {
	e := newEngine(t)
	e.addContact(t, "u1")
	goal := e.addGoal(t, "u1", 5)
	e.addMember(t, "u1", model.ChannelSetText, model.ConsentGranted, true)
	e.text.setFail(dispatch.Permanentf("unreachable number"))

	result, err := e.escalation.Process(context.Background(), goal, asOf, 3)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeFailed, result.Outcome)

	// Text-only preference plus permanent failure: no voice attempt.
	assert.Zero(t, e.voice.callCount())

	records, err := e.escalation.History(goal.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, records[0].Receipts, 1)
	assert.Equal(t, model.DeliveryPermanentFailure, records[0].Receipts[0].Result)
}

func TestRequeueRetriesOnlyFailedRecords(t *testing.T) {
	e := newEngine(t)
	e.addContact(t, "u1")
	goal := e.addGoal(t, "u1", 5)
	e.addMember(t, "u1", model.ChannelSetEmail, model.ConsentGranted, true)
	e.email.setFail(dispatch.Transientf("provider 503"))

	result, err := e.escalation.Process(context.Background(), goal, asOf, 2)
	require.NoError(t, err)
	require.Equal(t, model.OutcomeFailed, result.Outcome)

	records, err := e.fix.Escalations().ByGoal(goal.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)

	// Provider recovers; an explicit requeue re-dispatches.
	e.email.setFail(nil)
	requeued, err := e.escalation.Requeue(context.Background(), records[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeSent, requeued.Outcome)
	assert.Equal(t, 2, e.email.callCount())

	// A sent record is no longer requeueable.
	_, err = e.escalation.Requeue(context.Background(), records[0].ID)
	assert.ErrorIs(t, err, ErrNotRequeueable)
}

func TestProcessSelfOutreachWithoutContactFails(t *testing.T) {
	e := newEngine(t)
	goal := e.addGoal(t, "u1", 5)

	result, err := e.escalation.Process(context.Background(), goal, asOf, 1)
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, model.OutcomeFailed, result.Outcome)

	// The failure is settled on the record, not silently dropped.
	records, listErr := e.fix.Escalations().ByGoal(goal.ID)
	require.NoError(t, listErr)
	require.Len(t, records, 1)
	assert.Equal(t, model.OutcomeFailed, records[0].Outcome)
}

func TestHistoryAttachesReceipts(t *testing.T) {
	e := newEngine(t)
	e.addContact(t, "u1")
	goal := e.addGoal(t, "u1", 5)
	e.addMember(t, "u1", model.ChannelSetEmail, model.ConsentGranted, true)

	_, err := e.escalation.Process(context.Background(), goal, asOf, 2)
	require.NoError(t, err)

	records, err := e.escalation.History(goal.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, records[0].Receipts, 1)
	assert.Equal(t, model.DeliverySuccess, records[0].Receipts[0].Result)
	assert.Equal(t, model.ChannelEmail, records[0].Receipts[0].Channel)
}
