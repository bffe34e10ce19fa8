package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/goalpost-app/goalpost/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrLogEntryNotFound = errors.New("log entry not found")
)

// LogEntryRepository is the activity ledger: read access for the engine,
// append-only writes for the goal-logging surface that feeds it.
type LogEntryRepository interface {
	Create(entry *model.DailyLogEntry) error
	Entry(goalID string, date time.Time) (*model.DailyLogEntry, error)
	EntriesInRange(goalID string, from, to time.Time) ([]*model.DailyLogEntry, error)
}

type logEntryRepository struct {
	db *sqlx.DB
}

func NewLogEntryRepository(db *sqlx.DB) LogEntryRepository {
	return &logEntryRepository{db: db}
}

func (r *logEntryRepository) Create(entry *model.DailyLogEntry) error {
	query := `INSERT INTO daily_log_entries (id, user_id, goal_id, entry_date, completed, note, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(query,
		entry.ID,
		entry.UserID,
		entry.GoalID,
		model.DateOnly(entry.EntryDate),
		entry.Completed,
		entry.Note,
		entry.CreatedAt,
	)

	return err
}

func (r *logEntryRepository) Entry(goalID string, date time.Time) (*model.DailyLogEntry, error) {
	entry := &model.DailyLogEntry{}
	query := `SELECT * FROM daily_log_entries WHERE goal_id = $1 AND entry_date = $2`

	err := r.db.Get(entry, query, goalID, model.DateOnly(date))
	if err == sql.ErrNoRows {
		return nil, ErrLogEntryNotFound
	}

	return entry, err
}

func (r *logEntryRepository) EntriesInRange(goalID string, from, to time.Time) ([]*model.DailyLogEntry, error) {
	var entries []*model.DailyLogEntry
	query := `SELECT * FROM daily_log_entries
	          WHERE goal_id = $1 AND entry_date >= $2 AND entry_date <= $3
	          ORDER BY entry_date ASC`

	err := r.db.Select(&entries, query, goalID, model.DateOnly(from), model.DateOnly(to))
	if err != nil {
		return nil, err
	}

	return entries, nil
}
