package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/goalpost-app/goalpost/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrGoalNotFound = errors.New("goal not found")
)

type GoalRepository interface {
	Create(goal *model.Goal) error
	ByID(userID, goalID string) (*model.Goal, error)
	ListActiveGoals() ([]*model.Goal, error)
	Goals(userID string) ([]*model.Goal, error)
	Update(goal *model.Goal) error
}

type goalRepository struct {
	db *sqlx.DB
}

func NewGoalRepository(db *sqlx.DB) GoalRepository {
	return &goalRepository{db: db}
}

func (r *goalRepository) Create(goal *model.Goal) error {
	query := `INSERT INTO goals (id, user_id, title, frequency, times_per_week, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(query,
		goal.ID,
		goal.UserID,
		goal.Title,
		goal.Frequency,
		goal.TimesPerWeek,
		goal.Status,
		goal.CreatedAt,
		goal.UpdatedAt,
	)

	return err
}

func (r *goalRepository) ByID(userID, goalID string) (*model.Goal, error) {
	goal := &model.Goal{}
	query := `SELECT * FROM goals WHERE id = $1 AND user_id = $2`

	err := r.db.Get(goal, query, goalID, userID)
	if err == sql.ErrNoRows {
		return nil, ErrGoalNotFound
	}

	return goal, err
}

// ListActiveGoals returns every active goal across all users, the work list
// for a daily run.
func (r *goalRepository) ListActiveGoals() ([]*model.Goal, error) {
	var goals []*model.Goal
	query := `SELECT * FROM goals WHERE status = $1 ORDER BY user_id, created_at`

	err := r.db.Select(&goals, query, model.GoalStatusActive)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

func (r *goalRepository) Goals(userID string) ([]*model.Goal, error) {
	var goals []*model.Goal
	query := `SELECT * FROM goals WHERE user_id = $1 ORDER BY updated_at DESC`

	err := r.db.Select(&goals, query, userID)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

func (r *goalRepository) Update(goal *model.Goal) error {
	query := `UPDATE goals
	          SET title = $1, frequency = $2, times_per_week = $3, status = $4, updated_at = $5
	          WHERE id = $6 AND user_id = $7`

	result, err := r.db.Exec(query,
		goal.Title,
		goal.Frequency,
		goal.TimesPerWeek,
		goal.Status,
		time.Now(),
		goal.ID,
		goal.UserID,
	)

	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrGoalNotFound
	}

	return nil
}
