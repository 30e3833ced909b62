package schedule_test

import (
	"testing"
	"time"

	"dayline/internal/schedule"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
}

func TestParsePatternRejectsUnknown(t *testing.T) {
	if _, err := schedule.ParsePattern("fortnightly"); err == nil {
		t.Fatal("expected error for unknown pattern")
	}
	if p, err := schedule.ParsePattern("biweekly"); err != nil || p != schedule.Biweekly {
		t.Fatalf("got %v, %v", p, err)
	}
	if p, err := schedule.ParsePattern(""); err != nil || p != schedule.None {
		t.Fatalf("empty pattern: got %v, %v", p, err)
	}
}

func TestNextSimpleIntervals(t *testing.T) {
	cases := []struct {
		pattern schedule.Pattern
		from    time.Time
		want    time.Time
	}{
		{schedule.Daily, date(2025, 1, 1), date(2025, 1, 2)},
		{schedule.Weekly, date(2025, 1, 1), date(2025, 1, 8)},
		{schedule.Biweekly, date(2025, 1, 1), date(2025, 1, 15)},
	}
	for _, c := range cases {
		got, err := c.pattern.Next(c.from)
		if err != nil {
			t.Fatalf("%s: %v", c.pattern, err)
		}
		if !got.Equal(c.want) {
			t.Fatalf("%s: got %v want %v", c.pattern, got, c.want)
		}
	}
}

func TestNextMonthlyClampsOverflow(t *testing.T) {
	got, err := schedule.Monthly.Next(date(2025, 1, 31))
	if err != nil {
		t.Fatal(err)
	}
	if got.Year() != 2025 || got.Month() != time.February || got.Day() != 28 {
		t.Fatalf("got %v", got)
	}
	// leap year keeps the 29th
	got, _ = schedule.Monthly.Next(date(2024, 1, 31))
	if got.Month() != time.February || got.Day() != 29 {
		t.Fatalf("leap: got %v", got)
	}
	// no clamp when the day fits
	got, _ = schedule.Monthly.Next(date(2025, 4, 15))
	if got.Month() != time.May || got.Day() != 15 {
		t.Fatalf("plain: got %v", got)
	}
	if got.Hour() != 9 || got.Minute() != 30 {
		t.Fatalf("time of day not preserved: %v", got)
	}
}

func TestNextEndOfMonth(t *testing.T) {
	got, err := schedule.EndOfMonth.Next(date(2025, 1, 31))
	if err != nil {
		t.Fatal(err)
	}
	if got.Month() != time.February || got.Day() != 28 {
		t.Fatalf("got %v", got)
	}
	got, _ = schedule.EndOfMonth.Next(date(2025, 3, 15))
	if got.Month() != time.April || got.Day() != 30 {
		t.Fatalf("got %v", got)
	}
}

func TestNextYearlyClampsLeapDay(t *testing.T) {
	got, err := schedule.Yearly.Next(date(2024, 2, 29))
	if err != nil {
		t.Fatal(err)
	}
	if got.Year() != 2025 || got.Month() != time.February || got.Day() != 28 {
		t.Fatalf("got %v", got)
	}
	got, _ = schedule.Yearly.Next(date(2025, 6, 10))
	if got.Year() != 2026 || got.Month() != time.June || got.Day() != 10 {
		t.Fatalf("got %v", got)
	}
}

func TestNextOnNonePatternFails(t *testing.T) {
	if _, err := schedule.None.Next(date(2025, 1, 1)); err == nil {
		t.Fatal("expected error")
	}
}

func TestEnded(t *testing.T) {
	end := time.Date(2025, 1, 10, 23, 59, 59, 0, time.UTC)
	if schedule.Ended(time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC), &end) {
		t.Fatal("on-bound occurrence must not end the series")
	}
	if !schedule.Ended(time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC), &end) {
		t.Fatal("past-bound occurrence must end the series")
	}
	if schedule.Ended(time.Date(2999, 1, 1, 0, 0, 0, 0, time.UTC), nil) {
		t.Fatal("nil bound never ends the series")
	}
}
