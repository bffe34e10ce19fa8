package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/goalpost-app/goalpost/internal/model"
	"github.com/goalpost-app/goalpost/internal/repository"
	"golang.org/x/sync/errgroup"
)

// RunReport aggregates one daily run for observability. Failures are data
// here, never propagated errors: the trigger endpoint always returns 200
// with the report.
type RunReport struct {
	AsOf           string         `json:"as_of"`
	GoalsProcessed int            `json:"goals_processed"`
	TiersFired     map[string]int `json:"tiers_fired"`
	MilestonesFired int           `json:"milestones_fired"`
	SkippedExisting int           `json:"skipped_existing"`
	SkippedNoConsent int          `json:"skipped_no_consent"`
	DeliveryFailures int          `json:"delivery_failures"`
	UnitErrors     []UnitError    `json:"unit_errors,omitempty"`
	Duration       string         `json:"duration"`

	mu sync.Mutex
}

// UnitError records one contained per-goal failure.
type UnitError struct {
	UserID string `json:"user_id"`
	GoalID string `json:"goal_id"`
	Error  string `json:"error"`
}

func newRunReport(asOf time.Time) *RunReport {
	return &RunReport{
		AsOf:       model.DateOnly(asOf).Format("2006-01-02"),
		TiersFired: make(map[string]int),
	}
}

func (r *RunReport) addTier(result *TierResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !result.Reserved {
		r.SkippedExisting++
		return
	}
	r.TiersFired[result.Tier]++
	if result.Outcome == model.OutcomeSkippedNoConsent {
		r.SkippedNoConsent++
	}
	if result.DeliveryFailure {
		r.DeliveryFailures++
	}
}

func (r *RunReport) addMilestone(result *MilestoneResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !result.Fired {
		r.SkippedExisting++
		return
	}
	r.MilestonesFired++
	if result.Outcome == model.OutcomeSkippedNoConsent {
		r.SkippedNoConsent++
	}
	if result.DeliveryFailure {
		r.DeliveryFailures++
	}
}

func (r *RunReport) addUnitError(goal *model.Goal, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.UnitErrors = append(r.UnitErrors, UnitError{
		UserID: goal.UserID,
		GoalID: goal.ID,
		Error:  err.Error(),
	})
}

func (r *RunReport) addProcessed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.GoalsProcessed++
}

// Orchestrator is the daily driver: for every active goal it runs the
// missed-day calculator, the escalation tracker, and the milestone
// detector, each goal as an isolated unit of work.
type Orchestrator struct {
	goals      repository.GoalRepository
	ledger     repository.LogEntryRepository
	escalation *EscalationService
	milestone  *MilestoneService
	workers    int
}

func NewOrchestrator(
	goals repository.GoalRepository,
	ledger repository.LogEntryRepository,
	escalation *EscalationService,
	milestone *MilestoneService,
	workers int,
) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		goals:      goals,
		ledger:     ledger,
		escalation: escalation,
		milestone:  milestone,
		workers:    workers,
	}
}

// RunDaily processes every active goal for the given date and returns the
// aggregated report. Per-goal units run concurrently; each unit's
// idempotency key is scoped to (goal, date, tier), so the only shared
// coordination is the storage-level check-and-reserve. Re-running for an
// already processed date is safe and yields an empty-delta report.
func (o *Orchestrator) RunDaily(ctx context.Context, asOf time.Time) (*RunReport, error) {
	started := time.Now()
	report := newRunReport(asOf)

	goals, err := o.goals.ListActiveGoals()
	if err != nil {
		return nil, fmt.Errorf("failed to list active goals: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for _, goal := range goals {
		g.Go(func() error {
			// Unit failures land in the report; they never abort the run.
			if err := o.processGoal(gctx, goal, asOf, report); err != nil {
				slog.Error("goal unit failed", "error", err, "goal_id", goal.ID, "user_id", goal.UserID)
				report.addUnitError(goal, err)
			}
			report.addProcessed()
			return nil
		})
	}

	// Units never return errors, so this only waits.
	_ = g.Wait()

	report.Duration = time.Since(started).String()
	slog.Info("daily run complete",
		"as_of", report.AsOf,
		"goals", report.GoalsProcessed,
		"tiers_fired", report.TiersFired,
		"milestones_fired", report.MilestonesFired,
		"delivery_failures", report.DeliveryFailures,
	)

	return report, nil
}

func (o *Orchestrator) processGoal(ctx context.Context, goal *model.Goal, asOf time.Time, report *RunReport) error {
	missed, err := MissedDays(goal, o.ledger, asOf)
	if err != nil {
		return fmt.Errorf("missed-day calculation: %w", err)
	}

	tierResult, tierErr := o.escalation.Process(ctx, goal, asOf, missed)
	if tierResult != nil {
		report.addTier(tierResult)
	}

	// The milestone pass is independent: it runs even when the escalation
	// path errored, and vice versa.
	milestoneResult, milestoneErr := o.milestone.Process(ctx, goal, o.ledger, asOf)
	if milestoneResult != nil {
		report.addMilestone(milestoneResult)
	}

	if tierErr != nil {
		return fmt.Errorf("escalation: %w", tierErr)
	}
	if milestoneErr != nil {
		return fmt.Errorf("milestone: %w", milestoneErr)
	}

	return nil
}
