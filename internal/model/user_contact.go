package model

import (
	"time"
)

// UserContact is where the self-outreach tier reaches the goal owner.
// Consent does not apply here; users nudge themselves.
type UserContact struct {
	UserID     string    `db:"user_id"`
	Name       string    `db:"name"`
	Phone      string    `db:"phone"`
	Email      string    `db:"email"`
	ChannelSet string    `db:"channel_set"`
	UpdatedAt  time.Time `db:"updated_at"`
}
