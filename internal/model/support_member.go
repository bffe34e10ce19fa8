package model

import (
	"fmt"
	"time"
)

const (
	ConsentPending  = "pending"
	ConsentGranted  = "granted"
	ConsentDeclined = "declined"
)

// ChannelSet is the closed set of contact preferences a member can hold.
// Legacy aliases from older imports ("text_voicemail", "both") are folded
// into these values at parse time; nothing downstream branches on strings.
const (
	ChannelSetText      = "text"
	ChannelSetVoice     = "voice"
	ChannelSetTextVoice = "text+voice"
	ChannelSetEmail     = "email"
)

type SupportMember struct {
	ID              string     `db:"id"`
	UserID          string     `db:"user_id"`
	Name            string     `db:"name"`
	Phone           string     `db:"phone"`
	Email           string     `db:"email"`
	ChannelSet      string     `db:"channel_set"`
	ConsentState    string     `db:"consent_state"`
	Active          bool       `db:"active"`
	PhoneUnusable   bool       `db:"phone_unusable"`
	EmailUnusable   bool       `db:"email_unusable"`
	ContactCount    int        `db:"contact_count"`
	LastContactedAt *time.Time `db:"last_contacted_at"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

// ParseChannelSet normalizes a stored preference, including legacy aliases.
func ParseChannelSet(s string) (string, error) {
	switch s {
	case ChannelSetText, "sms":
		return ChannelSetText, nil
	case ChannelSetVoice, "call":
		return ChannelSetVoice, nil
	case ChannelSetTextVoice, "text_voicemail", "both":
		return ChannelSetTextVoice, nil
	case ChannelSetEmail:
		return ChannelSetEmail, nil
	}
	return "", fmt.Errorf("unknown channel set: %q", s)
}
