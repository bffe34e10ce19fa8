package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goalpost-app/goalpost/internal/model"
	"github.com/goalpost-app/goalpost/internal/repository"
	"github.com/google/uuid"
)

var (
	ErrGoalNotEditable = errors.New("completed goals cannot be edited")
)

// GoalService is the thin entry surface the engine shares with the goal
// CRUD collaborators: it creates goals and log entries and applies the one
// rule that touches escalation state, closing out in-flight records when a
// goal's rules change.
type GoalService struct {
	repo        repository.GoalRepository
	entries     repository.LogEntryRepository
	escalations repository.EscalationRepository
}

func NewGoalService(
	repo repository.GoalRepository,
	entries repository.LogEntryRepository,
	escalations repository.EscalationRepository,
) *GoalService {
	return &GoalService{
		repo:        repo,
		entries:     entries,
		escalations: escalations,
	}
}

func (s *GoalService) Create(userID, title, frequencyRule string) (*model.Goal, error) {
	frequency, timesPerWeek, err := model.ParseFrequencyRule(frequencyRule)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	goal := &model.Goal{
		ID:           uuid.New().String(),
		UserID:       userID,
		Title:        title,
		Frequency:    frequency,
		TimesPerWeek: timesPerWeek,
		Status:       model.GoalStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.repo.Create(goal)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	return goal, nil
}

func (s *GoalService) ByID(userID, goalID string) (*model.Goal, error) {
	return s.repo.ByID(userID, goalID)
}

// Update changes a goal's status or frequency. Only those two fields are
// mutable. An edit closes out any still-pending escalation record for the
// current date so the daily run never acts on stale rules.
func (s *GoalService) Update(userID, goalID, status, frequencyRule string) error {
	goal, err := s.repo.ByID(userID, goalID)
	if err != nil {
		return err
	}

	if goal.Status == model.GoalStatusCompleted && status != model.GoalStatusCompleted {
		return ErrGoalNotEditable
	}

	frequency, timesPerWeek, err := model.ParseFrequencyRule(frequencyRule)
	if err != nil {
		return err
	}

	goal.Status = status
	goal.Frequency = frequency
	goal.TimesPerWeek = timesPerWeek
	goal.UpdatedAt = time.Now()

	if err := s.repo.Update(goal); err != nil {
		return err
	}

	s.closeOutPending(goalID)
	return nil
}

func (s *GoalService) closeOutPending(goalID string) {
	records, err := s.escalations.ByGoalAndDate(goalID, time.Now())
	if err != nil {
		slog.Error("failed to load escalations for close-out", "error", err, "goal_id", goalID)
		return
	}

	for _, record := range records {
		if record.Outcome != model.OutcomePending {
			continue
		}
		if err := s.escalations.SettleOutcome(record.ID, model.OutcomeFailed); err != nil {
			slog.Error("failed to close out escalation", "error", err, "record_id", record.ID)
		}
	}
}

// LogCompletion appends a completion entry for a date. Late entries for
// past dates are allowed and become authoritative for that date.
func (s *GoalService) LogCompletion(userID, goalID string, date time.Time, note string) (*model.DailyLogEntry, error) {
	goal, err := s.repo.ByID(userID, goalID)
	if err != nil {
		return nil, err
	}

	entry := &model.DailyLogEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		GoalID:    goal.ID,
		EntryDate: model.DateOnly(date),
		Completed: true,
		Note:      note,
		CreatedAt: time.Now(),
	}

	err = s.entries.Create(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to create log entry: %w", err)
	}

	return entry, nil
}
