package model

import (
	"time"
)

const (
	ChannelText  = "text"
	ChannelVoice = "voice"
	ChannelEmail = "email"
)

const (
	DeliverySuccess          = "success"
	DeliveryTransientFailure = "transient_failure"
	DeliveryPermanentFailure = "permanent_failure"
)

// DeliveryReceipt records one channel attempt. A fallback attempt produces
// a second receipt under the same escalation record or milestone event.
type DeliveryReceipt struct {
	ID           string    `json:"id" db:"id"`
	EscalationID *string   `json:"escalation_id,omitempty" db:"escalation_id"`
	MilestoneID  *string   `json:"milestone_id,omitempty" db:"milestone_id"`
	MemberID     string    `json:"member_id" db:"member_id"`
	Channel      string    `json:"channel" db:"channel"`
	Recipient    string    `json:"recipient" db:"recipient"`
	Result       string    `json:"result" db:"result"`
	ProviderID   string    `json:"provider_id" db:"provider_id"`
	ErrorDetail  string    `json:"error_detail,omitempty" db:"error_detail"`
	AttemptedAt  time.Time `json:"attempted_at" db:"attempted_at"`
}
