package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goalpost-app/goalpost/internal/model"
	"github.com/goalpost-app/goalpost/internal/repository"
	"github.com/goalpost-app/goalpost/internal/service/dispatch"
	"github.com/google/uuid"
)

// MilestoneThresholds are the streak lengths worth celebrating. A length
// fires at most once per goal, ever.
var MilestoneThresholds = []int{7, 30, 60}

// MilestoneResult is what one goal's milestone pass reports back.
type MilestoneResult struct {
	StreakLength    int    `json:"streak_length"`
	Fired           bool   `json:"fired"` // false when the event already existed
	Outcome         string `json:"outcome"`
	DeliveryFailure bool   `json:"delivery_failure"`
}

// MilestoneService detects and celebrates completion streaks. It runs
// independently of the escalation path and neither suppresses nor is
// suppressed by it.
type MilestoneService struct {
	milestones repository.MilestoneRepository
	receipts   repository.ReceiptRepository
	contacts   repository.UserContactRepository
	consent    *ConsentService
	dispatcher *dispatch.Dispatcher
	appName    string
	appURL     string
}

func NewMilestoneService(
	milestones repository.MilestoneRepository,
	receipts repository.ReceiptRepository,
	contacts repository.UserContactRepository,
	consent *ConsentService,
	dispatcher *dispatch.Dispatcher,
	appName, appURL string,
) *MilestoneService {
	return &MilestoneService{
		milestones: milestones,
		receipts:   receipts,
		contacts:   contacts,
		consent:    consent,
		dispatcher: dispatcher,
		appName:    appName,
		appURL:     appURL,
	}
}

// Process checks one goal's streak against the thresholds and fires a
// celebration when an exact threshold is newly reached. A nil result means
// the streak is not at a threshold today.
func (s *MilestoneService) Process(ctx context.Context, goal *model.Goal, ledger Ledger, asOf time.Time) (*MilestoneResult, error) {
	streak, err := StreakDays(goal, ledger, asOf)
	if err != nil {
		return nil, err
	}

	if !isMilestone(streak) {
		return nil, nil
	}

	event := &model.MilestoneEvent{
		ID:           uuid.New().String(),
		UserID:       goal.UserID,
		GoalID:       goal.ID,
		StreakLength: streak,
		FiredDate:    model.DateOnly(asOf),
		Outcome:      model.OutcomePending,
		CreatedAt:    time.Now(),
	}

	reserved, err := s.milestones.Reserve(event)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve milestone: %w", err)
	}
	if !reserved {
		return &MilestoneResult{StreakLength: streak, Fired: false}, nil
	}

	outcome, err := s.celebrate(ctx, goal, event)
	if err != nil {
		if settleErr := s.milestones.SettleOutcome(event.ID, model.OutcomeFailed); settleErr != nil {
			slog.Error("failed to settle milestone outcome", "error", settleErr, "event_id", event.ID)
		}
		return &MilestoneResult{StreakLength: streak, Fired: true, Outcome: model.OutcomeFailed, DeliveryFailure: true}, err
	}

	if err := s.milestones.SettleOutcome(event.ID, outcome); err != nil {
		return nil, fmt.Errorf("failed to settle milestone outcome: %w", err)
	}

	return &MilestoneResult{
		StreakLength:    streak,
		Fired:           true,
		Outcome:         outcome,
		DeliveryFailure: outcome == model.OutcomeFailed,
	}, nil
}

func (s *MilestoneService) celebrate(ctx context.Context, goal *model.Goal, event *model.MilestoneEvent) (string, error) {
	eligible, _, err := s.consent.EligibleMembers(goal.UserID)
	if err != nil {
		return "", err
	}

	if len(eligible) == 0 {
		return model.OutcomeSkippedNoConsent, nil
	}

	userName := goal.UserID
	if contact, err := s.contacts.ByUser(goal.UserID); err == nil && contact.Name != "" {
		userName = contact.Name
	}

	anyDelivered := false
	for _, member := range eligible {
		vars := dispatch.Vars{
			UserName:   userName,
			MemberName: member.Name,
			GoalTitle:  goal.Title,
			StreakDays: event.StreakLength,
			AppName:    s.appName,
			AppURL:     s.appURL,
		}

		_, delivered, err := s.dispatcher.Deliver(ctx, dispatch.MilestoneRef(event.ID), dispatch.TargetFromMember(member), dispatch.TemplateMilestone, vars)
		if err != nil {
			return "", err
		}
		if delivered {
			anyDelivered = true
		}
	}

	if !anyDelivered {
		return model.OutcomeFailed, nil
	}

	return model.OutcomeSent, nil
}

// History returns a goal's milestone events with receipts attached.
func (s *MilestoneService) History(goalID string) ([]*model.MilestoneEvent, error) {
	events, err := s.milestones.ByGoal(goalID)
	if err != nil {
		return nil, err
	}

	for _, event := range events {
		receipts, err := s.receipts.ByMilestone(event.ID)
		if err != nil {
			return nil, err
		}
		event.Receipts = receipts
	}

	return events, nil
}

func isMilestone(streak int) bool {
	for _, t := range MilestoneThresholds {
		if streak == t {
			return true
		}
	}
	return false
}
