package model

import (
	"time"
)

// DateOnly truncates a timestamp to its calendar date in UTC. Every date
// that participates in a unique key (log entries, escalation records,
// milestone events) passes through here so that equality is equality of
// calendar days, not of instants.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether two timestamps fall on the same UTC calendar day.
func SameDate(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}
