package model

import (
	"time"
)

// Escalation tiers, in firing order. SELF_OUTREACH fires after one missed
// day, SUPPORT_NOTIFIED after two, SUPPORT_CHECKIN on every day from the
// third onward while the miss streak continues.
const (
	TierSelfOutreach   = "SELF_OUTREACH"
	TierSupportNotify  = "SUPPORT_NOTIFIED"
	TierSupportCheckin = "SUPPORT_CHECKIN"
)

const (
	OutcomePending          = "pending"
	OutcomeSent             = "sent"
	OutcomeFailed           = "failed"
	OutcomeSkippedNoConsent = "skipped_no_consent"
)

// EscalationRecord is the durable reservation for one fired tier. Exactly
// zero or one record exists per (goal, date, tier); the row is the source
// of truth for "has this already fired" and is never rewritten, only its
// outcome is settled once after dispatch.
type EscalationRecord struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	GoalID     string    `json:"goal_id" db:"goal_id"`
	RecordDate time.Time `json:"record_date" db:"record_date"`
	Tier       string    `json:"tier" db:"tier"`
	MissedDays int       `json:"missed_days" db:"missed_days"`
	Outcome    string    `json:"outcome" db:"outcome"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`

	Receipts []*DeliveryReceipt `json:"receipts" db:"-"`
}
