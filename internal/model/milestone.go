package model

import (
	"time"
)

// MilestoneEvent marks a celebrated streak length. Unique per (goal,
// streak length); once fired it never fires again for the same length,
// even if the streak is broken and later rebuilt.
type MilestoneEvent struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	GoalID       string    `json:"goal_id" db:"goal_id"`
	StreakLength int       `json:"streak_length" db:"streak_length"`
	FiredDate    time.Time `json:"fired_date" db:"fired_date"`
	Outcome      string    `json:"outcome" db:"outcome"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	Receipts []*DeliveryReceipt `json:"receipts" db:"-"`
}
