package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goalpost-app/goalpost/internal/model"
	"github.com/goalpost-app/goalpost/internal/repository"
	"github.com/goalpost-app/goalpost/internal/service/dispatch"
	"github.com/google/uuid"
)

// asOf is a fixed Wednesday so weekly-window tests are deterministic.
var asOf = time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC)

type stubSender struct {
	mu      sync.Mutex
	channel string
	fail    error
	calls   []string
}

func (s *stubSender) Send(ctx context.Context, recipient string, msg dispatch.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, recipient)
	if s.fail != nil {
		return "", s.fail
	}
	return "stub-" + s.channel, nil
}

func (s *stubSender) Name() string { return "stub-" + s.channel }

func (s *stubSender) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubSender) setFail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

type engine struct {
	fix   *repository.Fixture
	text  *stubSender
	voice *stubSender
	email *stubSender

	consent      *ConsentService
	escalation   *EscalationService
	milestone    *MilestoneService
	orchestrator *Orchestrator
	goals        *GoalService
}

// newEngine wires every service against the in-memory fixture with stub
// channel senders and a single-attempt retry budget, so tests never sleep
// in backoff.
func newEngine(t *testing.T) *engine {
	t.Helper()

	e := &engine{
		fix:   repository.NewFixture(),
		text:  &stubSender{channel: model.ChannelText},
		voice: &stubSender{channel: model.ChannelVoice},
		email: &stubSender{channel: model.ChannelEmail},
	}

	senders := map[string]dispatch.Sender{
		model.ChannelText:  e.text,
		model.ChannelVoice: e.voice,
		model.ChannelEmail: e.email,
	}
	dispatcher := dispatch.NewDispatcher(senders, e.fix.Receipts(), e.fix.Members(), time.Second, 1)

	e.consent = NewConsentService(e.fix.Members(), e.fix.UserContacts(), dispatcher, "Goalpost")
	e.escalation = NewEscalationService(
		e.fix.Escalations(), e.fix.Receipts(), e.fix.Goals(), e.fix.UserContacts(),
		e.consent, dispatcher, "Goalpost", "https://goalpost.test",
	)
	e.milestone = NewMilestoneService(
		e.fix.Milestones(), e.fix.Receipts(), e.fix.UserContacts(),
		e.consent, dispatcher, "Goalpost", "https://goalpost.test",
	)
	e.orchestrator = NewOrchestrator(e.fix.Goals(), e.fix.LogEntries(), e.escalation, e.milestone, 4)
	e.goals = NewGoalService(e.fix.Goals(), e.fix.LogEntries(), e.fix.Escalations())

	return e
}

func (e *engine) addContact(t *testing.T, userID string) {
	t.Helper()
	err := e.fix.UserContacts().Upsert(&model.UserContact{
		UserID:     userID,
		Name:       "Jesse",
		Phone:      "+15550100",
		Email:      "jesse@example.com",
		ChannelSet: model.ChannelSetText,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func (e *engine) addGoal(t *testing.T, userID string, createdDaysAgo int) *model.Goal {
	t.Helper()
	goal := &model.Goal{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     "Run every morning",
		Frequency: model.FrequencyDaily,
		Status:    model.GoalStatusActive,
		CreatedAt: asOf.AddDate(0, 0, -createdDaysAgo),
		UpdatedAt: asOf,
	}
	if err := e.fix.Goals().Create(goal); err != nil {
		t.Fatal(err)
	}
	return goal
}

func (e *engine) addMember(t *testing.T, userID, channelSet, consentState string, active bool) *model.SupportMember {
	t.Helper()
	member := &model.SupportMember{
		ID:           uuid.New().String(),
		UserID:       userID,
		Name:         "Blake",
		Phone:        "+15550101",
		Email:        "blake@example.com",
		ChannelSet:   channelSet,
		ConsentState: consentState,
		Active:       active,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := e.fix.Members().Create(member); err != nil {
		t.Fatal(err)
	}
	return member
}

// logDays records completed entries for the given offsets back from asOf.
func (e *engine) logDays(t *testing.T, goal *model.Goal, daysAgo ...int) {
	t.Helper()
	for _, d := range daysAgo {
		err := e.fix.LogEntries().Create(&model.DailyLogEntry{
			ID:        uuid.New().String(),
			UserID:    goal.UserID,
			GoalID:    goal.ID,
			EntryDate: asOf.AddDate(0, 0, -d),
			Completed: true,
			CreatedAt: time.Now(),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
}
