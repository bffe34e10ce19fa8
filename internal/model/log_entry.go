package model

import (
	"time"
)

// DailyLogEntry records whether a goal was completed on a calendar date.
// At most one entry exists per (goal, date). Entries are append-only and may
// be backfilled for past dates; a late entry is authoritative for its date.
type DailyLogEntry struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	GoalID    string    `json:"goal_id" db:"goal_id"`
	EntryDate time.Time `json:"entry_date" db:"entry_date"`
	Completed bool      `json:"completed" db:"completed"`
	Note      string    `json:"note,omitempty" db:"note"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
