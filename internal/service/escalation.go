package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goalpost-app/goalpost/internal/model"
	"github.com/goalpost-app/goalpost/internal/repository"
	"github.com/goalpost-app/goalpost/internal/service/dispatch"
	"github.com/google/uuid"
)

var (
	ErrNotRequeueable = errors.New("only failed escalations can be re-queued")
)

// TierResult is what one goal's escalation pass reports back to the
// orchestrator.
type TierResult struct {
	Tier            string `json:"tier"`
	Outcome         string `json:"outcome"`
	Reserved        bool   `json:"reserved"` // false means the idempotency check found an existing record
	SkippedMembers  int    `json:"skipped_members"`
	DeliveryFailure bool   `json:"delivery_failure"`
}

// EscalationService is the day-scoped state tracker: it decides which tier
// a missed-day count maps to, reserves the (goal, date, tier) slot
// atomically, and drives dispatch for reserved tiers.
type EscalationService struct {
	escalations repository.EscalationRepository
	receipts    repository.ReceiptRepository
	goals       repository.GoalRepository
	contacts    repository.UserContactRepository
	consent     *ConsentService
	dispatcher  *dispatch.Dispatcher
	appName     string
	appURL      string
}

func NewEscalationService(
	escalations repository.EscalationRepository,
	receipts repository.ReceiptRepository,
	goals repository.GoalRepository,
	contacts repository.UserContactRepository,
	consent *ConsentService,
	dispatcher *dispatch.Dispatcher,
	appName, appURL string,
) *EscalationService {
	return &EscalationService{
		escalations: escalations,
		receipts:    receipts,
		goals:       goals,
		contacts:    contacts,
		consent:     consent,
		dispatcher:  dispatcher,
		appName:     appName,
		appURL:      appURL,
	}
}

// TierFor maps a missed-day count onto the escalation ladder. Counts of
// three and above return the check-in tier every day, which combined with
// the day-scoped unique key yields exactly one check-in per day while the
// miss streak continues.
func TierFor(missedDays int) (string, bool) {
	switch {
	case missedDays <= 0:
		return "", false
	case missedDays == 1:
		return model.TierSelfOutreach, true
	case missedDays == 2:
		return model.TierSupportNotify, true
	default:
		return model.TierSupportCheckin, true
	}
}

// Process runs the state machine for one goal on one date. A nil result
// means no tier was due (the cycle is at NONE).
func (s *EscalationService) Process(ctx context.Context, goal *model.Goal, asOf time.Time, missedDays int) (*TierResult, error) {
	tier, due := TierFor(missedDays)
	if !due {
		return nil, nil
	}

	record := &model.EscalationRecord{
		ID:         uuid.New().String(),
		UserID:     goal.UserID,
		GoalID:     goal.ID,
		RecordDate: model.DateOnly(asOf),
		Tier:       tier,
		MissedDays: missedDays,
		Outcome:    model.OutcomePending,
		CreatedAt:  time.Now(),
	}

	reserved, err := s.escalations.Reserve(record)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve escalation: %w", err)
	}
	if !reserved {
		// Idempotency conflict: an earlier run already owns this tier.
		return &TierResult{Tier: tier, Reserved: false}, nil
	}

	outcome, skippedMembers, err := s.dispatchTier(ctx, goal, record)
	if err != nil {
		// The slot stays reserved with outcome=failed so a rerun does not
		// re-send; recovery is an explicit requeue.
		if settleErr := s.escalations.SettleOutcome(record.ID, model.OutcomeFailed); settleErr != nil {
			slog.Error("failed to settle escalation outcome", "error", settleErr, "record_id", record.ID)
		}
		return &TierResult{Tier: tier, Reserved: true, Outcome: model.OutcomeFailed, DeliveryFailure: true}, err
	}

	if err := s.escalations.SettleOutcome(record.ID, outcome); err != nil {
		return nil, fmt.Errorf("failed to settle escalation outcome: %w", err)
	}

	return &TierResult{
		Tier:            tier,
		Reserved:        true,
		Outcome:         outcome,
		SkippedMembers:  skippedMembers,
		DeliveryFailure: outcome == model.OutcomeFailed,
	}, nil
}

func (s *EscalationService) dispatchTier(ctx context.Context, goal *model.Goal, record *model.EscalationRecord) (outcome string, skippedMembers int, err error) {
	switch record.Tier {
	case model.TierSelfOutreach:
		return s.dispatchSelf(ctx, goal, record)
	case model.TierSupportNotify, model.TierSupportCheckin:
		return s.dispatchSupport(ctx, goal, record)
	}
	return "", 0, fmt.Errorf("unknown tier: %q", record.Tier)
}

func (s *EscalationService) dispatchSelf(ctx context.Context, goal *model.Goal, record *model.EscalationRecord) (string, int, error) {
	contact, err := s.contacts.ByUser(goal.UserID)
	if err != nil {
		return "", 0, fmt.Errorf("no contact info for user %s: %w", goal.UserID, err)
	}

	vars := dispatch.Vars{
		UserName:   contact.Name,
		GoalTitle:  goal.Title,
		MissedDays: record.MissedDays,
		AppName:    s.appName,
		AppURL:     s.appURL,
	}

	_, delivered, err := s.dispatcher.Deliver(ctx, dispatch.EscalationRef(record.ID), dispatch.TargetFromContact(contact), dispatch.TemplateSelfOutreach, vars)
	if err != nil {
		return "", 0, err
	}
	if !delivered {
		return model.OutcomeFailed, 0, nil
	}

	return model.OutcomeSent, 0, nil
}

func (s *EscalationService) dispatchSupport(ctx context.Context, goal *model.Goal, record *model.EscalationRecord) (string, int, error) {
	eligible, skipped, err := s.consent.EligibleMembers(goal.UserID)
	if err != nil {
		return "", 0, err
	}

	// No consented members is a skip, never a failure.
	if len(eligible) == 0 {
		return model.OutcomeSkippedNoConsent, len(skipped), nil
	}

	userName := goal.UserID
	if contact, err := s.contacts.ByUser(goal.UserID); err == nil && contact.Name != "" {
		userName = contact.Name
	}

	templateID := dispatch.TemplateSupportNotify
	if record.Tier == model.TierSupportCheckin {
		templateID = dispatch.TemplateSupportCheckin
	}

	anyDelivered := false
	for _, member := range eligible {
		vars := dispatch.Vars{
			UserName:   userName,
			MemberName: member.Name,
			GoalTitle:  goal.Title,
			MissedDays: record.MissedDays,
			AppName:    s.appName,
			AppURL:     s.appURL,
		}

		_, delivered, err := s.dispatcher.Deliver(ctx, dispatch.EscalationRef(record.ID), dispatch.TargetFromMember(member), templateID, vars)
		if err != nil {
			return "", 0, err
		}
		if delivered {
			anyDelivered = true
		}
	}

	if !anyDelivered {
		return model.OutcomeFailed, len(skipped), nil
	}

	return model.OutcomeSent, len(skipped), nil
}

// Requeue re-attempts dispatch for a record whose outcome is failed. This
// is the only recovery path; reruns of the daily job never re-send.
func (s *EscalationService) Requeue(ctx context.Context, recordID string) (*TierResult, error) {
	record, err := s.escalations.ByID(recordID)
	if err != nil {
		return nil, err
	}
	if record.Outcome != model.OutcomeFailed {
		return nil, ErrNotRequeueable
	}

	goal, err := s.goals.ByID(record.UserID, record.GoalID)
	if err != nil {
		return nil, err
	}

	outcome, skippedMembers, err := s.dispatchTier(ctx, goal, record)
	if err != nil {
		return &TierResult{Tier: record.Tier, Reserved: true, Outcome: model.OutcomeFailed, DeliveryFailure: true}, err
	}

	if err := s.escalations.SettleOutcome(record.ID, outcome); err != nil {
		return nil, fmt.Errorf("failed to settle escalation outcome: %w", err)
	}

	return &TierResult{Tier: record.Tier, Reserved: true, Outcome: outcome, SkippedMembers: skippedMembers}, nil
}

// History returns a goal's escalation records with their receipts attached,
// read-only for dashboards.
func (s *EscalationService) History(goalID string) ([]*model.EscalationRecord, error) {
	records, err := s.escalations.ByGoal(goalID)
	if err != nil {
		return nil, err
	}

	for _, record := range records {
		receipts, err := s.receipts.ByEscalation(record.ID)
		if err != nil {
			return nil, err
		}
		record.Receipts = receipts
	}

	return records, nil
}
