// Package schedule contains the date algebra for recurring tasks and
// carry-over rescheduling. Everything here is pure; the engine decides what
// to persist.
package schedule

import (
	"fmt"
	"time"
)

// Pattern is a recurrence pattern. The zero value means no recurrence.
type Pattern string

const (
	None       Pattern = ""
	Daily      Pattern = "daily"
	Weekly     Pattern = "weekly"
	Biweekly   Pattern = "biweekly"
	Monthly    Pattern = "monthly"
	EndOfMonth Pattern = "end_of_month"
	Yearly     Pattern = "yearly"
)

// ParsePattern validates a pattern string at the boundary. Unknown values
// are rejected, never silently treated as "no recurrence".
func ParsePattern(s string) (Pattern, error) {
	switch Pattern(s) {
	case None, Daily, Weekly, Biweekly, Monthly, EndOfMonth, Yearly:
		return Pattern(s), nil
	}
	return None, fmt.Errorf("unknown recurring pattern %q", s)
}

// Next computes the due date of the occurrence after from.
//
// monthly keeps the day-of-month, clamped to the next month's last day
// (Jan 31 -> Feb 28/29); end_of_month lands on the last calendar day of the
// next month; yearly clamps Feb 29 to Feb 28 off leap years. Time of day is
// preserved.
func (p Pattern) Next(from time.Time) (time.Time, error) {
	switch p {
	case Daily:
		return from.AddDate(0, 0, 1), nil
	case Weekly:
		return from.AddDate(0, 0, 7), nil
	case Biweekly:
		return from.AddDate(0, 0, 14), nil
	case Monthly:
		return addMonthClamped(from, 1), nil
	case EndOfMonth:
		y, m, _ := from.Date()
		return time.Date(y, m+2, 0, from.Hour(), from.Minute(), from.Second(), from.Nanosecond(), from.Location()), nil
	case Yearly:
		y, m, d := from.Date()
		next := time.Date(y+1, m, d, from.Hour(), from.Minute(), from.Second(), from.Nanosecond(), from.Location())
		if next.Month() != m {
			// Feb 29 rolled into March; clamp back to Feb 28.
			next = next.AddDate(0, 0, -1)
		}
		return next, nil
	case None:
		return time.Time{}, fmt.Errorf("no recurrence pattern")
	}
	return time.Time{}, fmt.Errorf("unknown recurring pattern %q", string(p))
}

// Ended reports whether a computed next occurrence falls past the series
// end bound. A nil bound never ends the series.
func Ended(next time.Time, endDate *time.Time) bool {
	return endDate != nil && next.After(*endDate)
}

func addMonthClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	// first of target month, then clamp the day
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := daysIn(first.Year(), first.Month())
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
