package schedule

import (
	"fmt"
	"time"
)

// TargetKind names a symbolic carry-over destination.
type TargetKind string

const (
	EndOfToday       TargetKind = "end_of_today"
	Tomorrow         TargetKind = "tomorrow"
	NextWeek         TargetKind = "next_week"
	EndOfMonthTarget TargetKind = "end_of_month"
	Custom           TargetKind = "custom"
)

// Target is the closed variant a carry-over request resolves through.
// Date is only meaningful for Custom.
type Target struct {
	Kind TargetKind
	Date time.Time
}

// ParseTarget builds a Target from its wire form. customDate accepts a
// date-only value (YYYY-MM-DD, resolved to local midnight) or a full
// RFC3339 instant, which is applied verbatim. The original due time of a
// carried task is never preserved.
func ParseTarget(kind string, customDate string) (Target, error) {
	switch TargetKind(kind) {
	case EndOfToday, Tomorrow, NextWeek, EndOfMonthTarget:
		return Target{Kind: TargetKind(kind)}, nil
	case Custom:
		if customDate == "" {
			return Target{}, fmt.Errorf("custom carry-over target requires a date")
		}
		if d, err := time.ParseInLocation("2006-01-02", customDate, time.Local); err == nil {
			return Target{Kind: Custom, Date: d}, nil
		}
		d, err := time.Parse(time.RFC3339, customDate)
		if err != nil {
			return Target{}, fmt.Errorf("invalid carry-over date %q", customDate)
		}
		return Target{Kind: Custom, Date: d}, nil
	}
	return Target{}, fmt.Errorf("unknown carry-over target %q", kind)
}

// Resolve turns the symbolic target into a concrete instant, evaluated
// against now (not against any task's original due date).
func (t Target) Resolve(now time.Time) (time.Time, error) {
	y, m, d := now.Date()
	loc := now.Location()
	switch t.Kind {
	case EndOfToday:
		return time.Date(y, m, d, 23, 59, 59, 999e6, loc), nil
	case Tomorrow:
		return time.Date(y, m, d+1, 0, 0, 0, 0, loc), nil
	case NextWeek:
		return time.Date(y, m, d+7, 0, 0, 0, 0, loc), nil
	case EndOfMonthTarget:
		return time.Date(y, m+1, 0, 23, 59, 59, 999e6, loc), nil
	case Custom:
		if t.Date.IsZero() {
			return time.Time{}, fmt.Errorf("custom carry-over target requires a date")
		}
		return t.Date, nil
	}
	return time.Time{}, fmt.Errorf("unknown carry-over target %q", string(t.Kind))
}
