package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/goalpost-app/goalpost/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrEscalationNotFound = errors.New("escalation record not found")
)

type EscalationRepository interface {
	// Reserve atomically inserts the record if no record exists for its
	// (goal, date, tier) key. Returns false when the slot was already
	// taken; the caller must then skip the tier.
	Reserve(record *model.EscalationRecord) (bool, error)
	SettleOutcome(recordID, outcome string) error
	ByID(recordID string) (*model.EscalationRecord, error)
	ByGoal(goalID string) ([]*model.EscalationRecord, error)
	ByGoalAndDate(goalID string, date time.Time) ([]*model.EscalationRecord, error)
}

type escalationRepository struct {
	db *sqlx.DB
}

func NewEscalationRepository(db *sqlx.DB) EscalationRepository {
	return &escalationRepository{db: db}
}

// Reserve relies on the UNIQUE (goal_id, record_date, tier) index: two
// concurrent workers racing on the same key see exactly one insert win.
// This is the only serialization point in the daily run.
func (r *escalationRepository) Reserve(record *model.EscalationRecord) (bool, error) {
	query := `INSERT INTO escalation_records (id, user_id, goal_id, record_date, tier, missed_days, outcome, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          ON CONFLICT (goal_id, record_date, tier) DO NOTHING`

	result, err := r.db.Exec(query,
		record.ID,
		record.UserID,
		record.GoalID,
		model.DateOnly(record.RecordDate),
		record.Tier,
		record.MissedDays,
		record.Outcome,
		record.CreatedAt,
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

func (r *escalationRepository) SettleOutcome(recordID, outcome string) error {
	query := `UPDATE escalation_records SET outcome = $1 WHERE id = $2`

	result, err := r.db.Exec(query, outcome, recordID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrEscalationNotFound
	}

	return nil
}

func (r *escalationRepository) ByID(recordID string) (*model.EscalationRecord, error) {
	record := &model.EscalationRecord{}
	query := `SELECT * FROM escalation_records WHERE id = $1`

	err := r.db.Get(record, query, recordID)
	if err == sql.ErrNoRows {
		return nil, ErrEscalationNotFound
	}

	return record, err
}

func (r *escalationRepository) ByGoal(goalID string) ([]*model.EscalationRecord, error) {
	var records []*model.EscalationRecord
	query := `SELECT * FROM escalation_records WHERE goal_id = $1 ORDER BY record_date DESC, tier ASC`

	err := r.db.Select(&records, query, goalID)
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *escalationRepository) ByGoalAndDate(goalID string, date time.Time) ([]*model.EscalationRecord, error) {
	var records []*model.EscalationRecord
	query := `SELECT * FROM escalation_records WHERE goal_id = $1 AND record_date = $2 ORDER BY tier ASC`

	err := r.db.Select(&records, query, goalID, model.DateOnly(date))
	if err != nil {
		return nil, err
	}

	return records, nil
}
