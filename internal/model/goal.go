package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	GoalStatusActive    = "active"
	GoalStatusPaused    = "paused"
	GoalStatusCompleted = "completed"
)

const (
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly" // requires TimesPerWeek between 1 and 7
)

type Goal struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	Title        string    `json:"title" db:"title"`
	Frequency    string    `json:"frequency" db:"frequency"`
	TimesPerWeek int       `json:"times_per_week,omitempty" db:"times_per_week"`
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

func (g *Goal) IsDaily() bool {
	return g.Frequency == FrequencyDaily
}

// FrequencyRule renders the rule in canonical form: "daily" or "weekly:N".
func (g *Goal) FrequencyRule() string {
	if g.Frequency == FrequencyWeekly {
		return fmt.Sprintf("%s:%d", FrequencyWeekly, g.TimesPerWeek)
	}
	return FrequencyDaily
}

// ParseFrequencyRule parses "daily" or "weekly:N".
func ParseFrequencyRule(rule string) (frequency string, timesPerWeek int, err error) {
	if rule == FrequencyDaily {
		return FrequencyDaily, 0, nil
	}

	freq, n, ok := strings.Cut(rule, ":")
	if !ok || freq != FrequencyWeekly {
		return "", 0, fmt.Errorf("invalid frequency rule: %q", rule)
	}

	times, err := strconv.Atoi(n)
	if err != nil || times < 1 || times > 7 {
		return "", 0, fmt.Errorf("invalid weekly count in rule: %q", rule)
	}

	return FrequencyWeekly, times, nil
}
