package repository

import (
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/goalpost-app/goalpost/internal/db"
	"github.com/goalpost-app/goalpost/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.Init("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))
	return database
}

func seedGoal(t *testing.T, database *sqlx.DB, id, userID string) *model.Goal {
	t.Helper()
	goal := &model.Goal{
		ID:        id,
		UserID:    userID,
		Title:     "Run every morning",
		Frequency: model.FrequencyDaily,
		Status:    model.GoalStatusActive,
		CreatedAt: time.Now().AddDate(0, 0, -10),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, NewGoalRepository(database).Create(goal))
	return goal
}

func TestEscalationReserveIsAtomicPerKey(t *testing.T) {
	database := setupDB(t)
	seedGoal(t, database, "g1", "u1")
	repo := NewEscalationRepository(database)

	date := time.Date(2026, 3, 18, 9, 30, 0, 0, time.UTC)
	record := &model.EscalationRecord{
		ID:         "rec-1",
		UserID:     "u1",
		GoalID:     "g1",
		RecordDate: date,
		Tier:       model.TierSelfOutreach,
		MissedDays: 1,
		Outcome:    model.OutcomePending,
		CreatedAt:  time.Now(),
	}

	reserved, err := repo.Reserve(record)
	require.NoError(t, err)
	assert.True(t, reserved)

	// Same key again, even at a different time of day: no second insert.
	dup := *record
	dup.ID = "rec-2"
	dup.RecordDate = date.Add(8 * time.Hour)
	reserved, err = repo.Reserve(&dup)
	require.NoError(t, err)
	assert.False(t, reserved)

	// A different tier on the same date is a different slot.
	other := *record
	other.ID = "rec-3"
	other.Tier = model.TierSupportNotify
	reserved, err = repo.Reserve(&other)
	require.NoError(t, err)
	assert.True(t, reserved)

	records, err := repo.ByGoalAndDate("g1", date)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestEscalationSettleOutcome(t *testing.T) {
	database := setupDB(t)
	seedGoal(t, database, "g1", "u1")
	repo := NewEscalationRepository(database)

	record := &model.EscalationRecord{
		ID: "rec-1", UserID: "u1", GoalID: "g1",
		RecordDate: time.Now(), Tier: model.TierSelfOutreach,
		MissedDays: 1, Outcome: model.OutcomePending, CreatedAt: time.Now(),
	}
	_, err := repo.Reserve(record)
	require.NoError(t, err)

	require.NoError(t, repo.SettleOutcome("rec-1", model.OutcomeSent))

	got, err := repo.ByID("rec-1")
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeSent, got.Outcome)

	assert.ErrorIs(t, repo.SettleOutcome("missing", model.OutcomeSent), ErrEscalationNotFound)
	_, err = repo.ByID("missing")
	assert.ErrorIs(t, err, ErrEscalationNotFound)
}

func TestMilestoneReserveUniquePerLength(t *testing.T) {
	database := setupDB(t)
	seedGoal(t, database, "g1", "u1")
	repo := NewMilestoneRepository(database)

	event := &model.MilestoneEvent{
		ID: "ms-1", UserID: "u1", GoalID: "g1",
		StreakLength: 7, FiredDate: time.Now(),
		Outcome: model.OutcomePending, CreatedAt: time.Now(),
	}
	reserved, err := repo.Reserve(event)
	require.NoError(t, err)
	assert.True(t, reserved)

	// Same length months later: the event already exists.
	dup := *event
	dup.ID = "ms-2"
	dup.FiredDate = time.Now().AddDate(0, 2, 0)
	reserved, err = repo.Reserve(&dup)
	require.NoError(t, err)
	assert.False(t, reserved)

	// The next threshold is its own slot.
	next := *event
	next.ID = "ms-3"
	next.StreakLength = 30
	reserved, err = repo.Reserve(&next)
	require.NoError(t, err)
	assert.True(t, reserved)

	events, err := repo.ByGoal("g1")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestGoalRepositoryScopesByUser(t *testing.T) {
	database := setupDB(t)
	repo := NewGoalRepository(database)
	goal := seedGoal(t, database, "g1", "u1")

	got, err := repo.ByID("u1", "g1")
	require.NoError(t, err)
	assert.Equal(t, goal.Title, got.Title)

	_, err = repo.ByID("someone-else", "g1")
	assert.ErrorIs(t, err, ErrGoalNotFound)

	goal.Status = model.GoalStatusPaused
	require.NoError(t, repo.Update(goal))

	active, err := repo.ListActiveGoals()
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestLogEntriesInRange(t *testing.T) {
	database := setupDB(t)
	seedGoal(t, database, "g1", "u1")
	repo := NewLogEntryRepository(database)

	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(&model.DailyLogEntry{
			ID:        "e" + strconv.Itoa(i),
			UserID:    "u1",
			GoalID:    "g1",
			EntryDate: base.AddDate(0, 0, i),
			Completed: true,
			CreatedAt: time.Now(),
		}))
	}

	entries, err := repo.EntriesInRange("g1", base.AddDate(0, 0, 1), base.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, entries[0].EntryDate.Before(entries[2].EntryDate))

	entry, err := repo.Entry("g1", base)
	require.NoError(t, err)
	assert.True(t, entry.Completed)

	_, err = repo.Entry("g1", base.AddDate(0, 0, 30))
	assert.ErrorIs(t, err, ErrLogEntryNotFound)
}

func TestSupportMemberLifecycle(t *testing.T) {
	database := setupDB(t)
	repo := NewSupportMemberRepository(database)

	member := &model.SupportMember{
		ID: "m1", UserID: "u1", Name: "Blake",
		Phone: "+15550101", Email: "blake@example.com",
		ChannelSet: model.ChannelSetTextVoice, ConsentState: model.ConsentPending,
		Active: true, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(member))

	require.NoError(t, repo.UpdateConsent("m1", model.ConsentGranted, true))

	at := time.Now()
	require.NoError(t, repo.RecordContact("m1", at))
	require.NoError(t, repo.MarkChannelUnusable("m1", model.ChannelVoice))

	got, err := repo.ByID("m1")
	require.NoError(t, err)
	assert.Equal(t, model.ConsentGranted, got.ConsentState)
	assert.Equal(t, 1, got.ContactCount)
	require.NotNil(t, got.LastContactedAt)
	assert.True(t, got.PhoneUnusable)
	assert.False(t, got.EmailUnusable)

	members, err := repo.ListFor("u1")
	require.NoError(t, err)
	assert.Len(t, members, 1)

	assert.ErrorIs(t, repo.UpdateConsent("missing", model.ConsentGranted, true), ErrSupportMemberNotFound)
}

func TestUserContactUpsert(t *testing.T) {
	database := setupDB(t)
	repo := NewUserContactRepository(database)

	require.NoError(t, repo.Upsert(&model.UserContact{
		UserID: "u1", Name: "Jesse", Phone: "+15550100",
		Email: "jesse@example.com", ChannelSet: model.ChannelSetText,
	}))
	require.NoError(t, repo.Upsert(&model.UserContact{
		UserID: "u1", Name: "Jesse", Phone: "+15550199",
		Email: "jesse@example.com", ChannelSet: model.ChannelSetEmail,
	}))

	got, err := repo.ByUser("u1")
	require.NoError(t, err)
	assert.Equal(t, "+15550199", got.Phone)
	assert.Equal(t, model.ChannelSetEmail, got.ChannelSet)

	_, err = repo.ByUser("missing")
	assert.ErrorIs(t, err, ErrUserContactNotFound)
}

func TestReceiptsLinkToOwner(t *testing.T) {
	database := setupDB(t)
	seedGoal(t, database, "g1", "u1")
	repo := NewReceiptRepository(database)

	escID := "esc-1"
	require.NoError(t, repo.Create(&model.DeliveryReceipt{
		ID: "r1", EscalationID: &escID, MemberID: "m1",
		Channel: model.ChannelText, Recipient: "+15550101",
		Result: model.DeliveryTransientFailure, ErrorDetail: "timeout",
		AttemptedAt: time.Now(),
	}))
	require.NoError(t, repo.Create(&model.DeliveryReceipt{
		ID: "r2", EscalationID: &escID, MemberID: "m1",
		Channel: model.ChannelVoice, Recipient: "+15550101",
		Result: model.DeliverySuccess, ProviderID: "CA123",
		AttemptedAt: time.Now(),
	}))

	receipts, err := repo.ByEscalation(escID)
	require.NoError(t, err)
	require.Len(t, receipts, 2)

	none, err := repo.ByMilestone("ms-1")
	require.NoError(t, err)
	assert.Empty(t, none)
}
