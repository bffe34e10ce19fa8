package repository

import (
	"errors"

	"github.com/goalpost-app/goalpost/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrMilestoneNotFound = errors.New("milestone event not found")
)

type MilestoneRepository interface {
	// Reserve atomically inserts the event if none exists for its
	// (goal, streak length) key. Returns false when already fired.
	Reserve(event *model.MilestoneEvent) (bool, error)
	SettleOutcome(eventID, outcome string) error
	ByGoal(goalID string) ([]*model.MilestoneEvent, error)
}

type milestoneRepository struct {
	db *sqlx.DB
}

func NewMilestoneRepository(db *sqlx.DB) MilestoneRepository {
	return &milestoneRepository{db: db}
}

func (r *milestoneRepository) Reserve(event *model.MilestoneEvent) (bool, error) {
	query := `INSERT INTO milestone_events (id, user_id, goal_id, streak_length, fired_date, outcome, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          ON CONFLICT (goal_id, streak_length) DO NOTHING`

	result, err := r.db.Exec(query,
		event.ID,
		event.UserID,
		event.GoalID,
		event.StreakLength,
		model.DateOnly(event.FiredDate),
		event.Outcome,
		event.CreatedAt,
	)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}

func (r *milestoneRepository) SettleOutcome(eventID, outcome string) error {
	query := `UPDATE milestone_events SET outcome = $1 WHERE id = $2`

	result, err := r.db.Exec(query, outcome, eventID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrMilestoneNotFound
	}

	return nil
}

func (r *milestoneRepository) ByGoal(goalID string) ([]*model.MilestoneEvent, error) {
	var events []*model.MilestoneEvent
	query := `SELECT * FROM milestone_events WHERE goal_id = $1 ORDER BY streak_length ASC`

	err := r.db.Select(&events, query, goalID)
	if err != nil {
		return nil, err
	}

	return events, nil
}
