package service

import (
	"time"

	"github.com/goalpost-app/goalpost/internal/model"
)

// Ledger is the read-only view of the activity log the calculators need.
// repository.LogEntryRepository satisfies it.
type Ledger interface {
	EntriesInRange(goalID string, from, to time.Time) ([]*model.DailyLogEntry, error)
}

// MissedDays returns the consecutive missed count for a goal as of a
// reference date. Both calculators are pure: same inputs, same answer, no
// matter how often they run.
//
// Daily goals: consecutive calendar days ending at asOf (inclusive) with no
// completed entry. Counting never reaches back past the day after the goal
// was created, and stops at the most recent completed entry.
//
// Weekly goals (N times per week): missed required occurrences, evaluated
// over ISO weeks (Monday start). A week only charges misses once they are
// unavoidable: the current week's deficit is N minus completions minus the
// days still remaining after asOf, floored at zero. Earlier weeks charge
// their full unmet deficit. Any completed entry resets accumulation, same
// as the daily rule.
func MissedDays(goal *model.Goal, ledger Ledger, asOf time.Time) (int, error) {
	day := model.DateOnly(asOf)
	start := model.DateOnly(goal.CreatedAt).AddDate(0, 0, 1)
	if day.Before(start) {
		return 0, nil
	}

	entries, err := ledger.EntriesInRange(goal.ID, start.AddDate(0, 0, -7), day)
	if err != nil {
		return 0, err
	}

	completed := make(map[string]bool)
	for _, e := range entries {
		if e.Completed {
			completed[dayKey(e.EntryDate)] = true
		}
	}

	if goal.IsDaily() {
		count := 0
		for !day.Before(start) {
			if completed[dayKey(day)] {
				break
			}
			count++
			day = day.AddDate(0, 0, -1)
		}
		return count, nil
	}

	return weeklyMissed(goal, completed, start, day), nil
}

func weeklyMissed(goal *model.Goal, completed map[string]bool, start, asOf time.Time) int {
	// Most recent completion bounds the window, per the reset rule.
	reset := start.AddDate(0, 0, -1)
	for d := asOf; !d.Before(start); d = d.AddDate(0, 0, -1) {
		if completed[dayKey(d)] {
			reset = d
			break
		}
	}

	missed := 0
	weekStart := startOfWeek(asOf)

	for {
		weekEnd := weekStart.AddDate(0, 0, 6)

		// Days of this week that count: after creation, after the last
		// completion, and not after asOf.
		lo := maxDate(weekStart, start, reset.AddDate(0, 0, 1))
		hi := minDate(weekEnd, asOf)
		if hi.Before(lo) {
			break
		}

		elapsed := int(hi.Sub(lo).Hours()/24) + 1
		remaining := int(weekEnd.Sub(hi).Hours() / 24)

		// Completions earlier in the week (before the reset bound) still
		// count toward the quota.
		done := 0
		for d := weekStart; !d.After(hi); d = d.AddDate(0, 0, 1) {
			if completed[dayKey(d)] {
				done++
			}
		}

		// The quota can only demand as many occurrences as the window holds.
		required := goal.TimesPerWeek - done
		if required > elapsed+remaining {
			required = elapsed + remaining
		}

		deficit := required - remaining
		if deficit > 0 {
			missed += deficit
		}

		if !lo.Equal(weekStart) || lo.Equal(start) {
			break
		}
		weekStart = weekStart.AddDate(0, 0, -7)
	}

	return missed
}

// StreakDays returns the current unbroken completion streak as of a
// reference date, the mirror of MissedDays.
//
// Daily goals: consecutive days ending at asOf with a completed entry.
// Weekly goals: completed occurrences accumulated across consecutive weeks
// that met their quota, plus the current week's completions; a week that
// ended below quota breaks the streak.
func StreakDays(goal *model.Goal, ledger Ledger, asOf time.Time) (int, error) {
	day := model.DateOnly(asOf)
	created := model.DateOnly(goal.CreatedAt)

	entries, err := ledger.EntriesInRange(goal.ID, created, day)
	if err != nil {
		return 0, err
	}

	completed := make(map[string]bool)
	for _, e := range entries {
		if e.Completed {
			completed[dayKey(e.EntryDate)] = true
		}
	}

	if goal.IsDaily() {
		count := 0
		for !day.Before(created) {
			if !completed[dayKey(day)] {
				break
			}
			count++
			day = day.AddDate(0, 0, -1)
		}
		return count, nil
	}

	return weeklyStreak(goal, completed, created, day), nil
}

func weeklyStreak(goal *model.Goal, completed map[string]bool, created, asOf time.Time) int {
	streak := 0
	weekStart := startOfWeek(asOf)
	current := true

	for !weekStart.AddDate(0, 0, 6).Before(created) {
		hi := minDate(weekStart.AddDate(0, 0, 6), asOf)

		count := 0
		for d := weekStart; !d.After(hi); d = d.AddDate(0, 0, 1) {
			if completed[dayKey(d)] {
				count++
			}
		}

		if current {
			// The in-progress week contributes whatever it has so far.
			streak += count
		} else {
			if count < goal.TimesPerWeek {
				break
			}
			streak += count
		}

		current = false
		weekStart = weekStart.AddDate(0, 0, -7)
	}

	return streak
}

func dayKey(t time.Time) string {
	return model.DateOnly(t).Format("2006-01-02")
}

// startOfWeek returns the Monday of the week containing t.
func startOfWeek(t time.Time) time.Time {
	d := model.DateOnly(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func maxDate(dates ...time.Time) time.Time {
	out := dates[0]
	for _, d := range dates[1:] {
		if d.After(out) {
			out = d
		}
	}
	return out
}

func minDate(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
