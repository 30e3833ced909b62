package schedule_test

import (
	"testing"
	"time"

	"dayline/internal/schedule"
)

var carryNow = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func TestResolveEndOfToday(t *testing.T) {
	got, err := schedule.Target{Kind: schedule.EndOfToday}.Resolve(carryNow)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2025, 3, 10, 23, 59, 59, 999e6, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestResolveTomorrow(t *testing.T) {
	got, err := schedule.Target{Kind: schedule.Tomorrow}.Resolve(carryNow)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestResolveNextWeek(t *testing.T) {
	got, _ := schedule.Target{Kind: schedule.NextWeek}.Resolve(carryNow)
	want := time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestResolveEndOfMonth(t *testing.T) {
	got, _ := schedule.Target{Kind: schedule.EndOfMonthTarget}.Resolve(carryNow)
	if got.Month() != time.March || got.Day() != 31 || got.Hour() != 23 {
		t.Fatalf("got %v", got)
	}
	// month-end rollover
	got, _ = schedule.Target{Kind: schedule.EndOfMonthTarget}.Resolve(time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC))
	if got.Month() != time.February || got.Day() != 28 {
		t.Fatalf("got %v", got)
	}
}

func TestParseTargetCustomDateOnlyIsMidnight(t *testing.T) {
	tgt, err := schedule.ParseTarget("custom", "2025-04-01")
	if err != nil {
		t.Fatal(err)
	}
	got, err := tgt.Resolve(carryNow)
	if err != nil {
		t.Fatal(err)
	}
	if got.Hour() != 0 || got.Minute() != 0 || got.Day() != 1 || got.Month() != time.April {
		t.Fatalf("got %v", got)
	}
}

func TestParseTargetCustomTimestampVerbatim(t *testing.T) {
	tgt, err := schedule.ParseTarget("custom", "2025-04-01T18:45:00Z")
	if err != nil {
		t.Fatal(err)
	}
	got, _ := tgt.Resolve(carryNow)
	want := time.Date(2025, 4, 1, 18, 45, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestParseTargetRejectsBadInput(t *testing.T) {
	if _, err := schedule.ParseTarget("someday", ""); err == nil {
		t.Fatal("expected error for unknown target")
	}
	if _, err := schedule.ParseTarget("custom", ""); err == nil {
		t.Fatal("expected error for custom without date")
	}
	if _, err := schedule.ParseTarget("custom", "not-a-date"); err == nil {
		t.Fatal("expected error for malformed date")
	}
}
