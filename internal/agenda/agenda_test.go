package agenda_test

import (
	"testing"
	"time"

	"dayline/internal/agenda"
	"dayline/internal/domain"
)

func strp(s string) *string { return &s }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestHabitSortsBeforeLaterTask(t *testing.T) {
	in := agenda.Inputs{
		Tasks: []domain.Task{
			{ID: "t1", Title: "standup notes", DueDate: strp("2025-03-10T09:00:00Z")},
			{ID: "t2", Title: "untimed"},
		},
		Habits: []domain.Habit{
			{ID: "h1", Name: "stretch", Frequency: "daily", ReminderTime: strp("08:30")},
		},
	}
	d, _ := agenda.DayView(in, day(2025, 3, 10), day(2025, 3, 10))
	if len(d.Items) != 2 {
		t.Fatalf("expected habit+timed task, got %d items", len(d.Items))
	}
	if d.Items[0].ID != "h1" || d.Items[1].ID != "t1" {
		t.Fatalf("order: %s, %s", d.Items[0].ID, d.Items[1].ID)
	}
}

func TestUntimedSortsLastStable(t *testing.T) {
	in := agenda.Inputs{
		Tasks: []domain.Task{
			{ID: "t1", DueDate: strp("2025-03-10T14:00:00Z")},
		},
		Habits: []domain.Habit{
			{ID: "h1", Name: "a", Frequency: "daily"},
			{ID: "h2", Name: "b", Frequency: "daily"},
		},
	}
	d, _ := agenda.DayView(in, day(2025, 3, 10), day(2025, 3, 10))
	if len(d.Items) != 3 {
		t.Fatalf("got %d items", len(d.Items))
	}
	if d.Items[0].ID != "t1" {
		t.Fatalf("timed first: %v", d.Items[0].ID)
	}
	if d.Items[1].ID != "h1" || d.Items[2].ID != "h2" {
		t.Fatalf("untimed must keep input order: %s, %s", d.Items[1].ID, d.Items[2].ID)
	}
}

func TestOverdueExcludedFromTimeBuckets(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	in := agenda.Inputs{
		Tasks: []domain.Task{
			{ID: "late", DueDate: strp("2025-03-10T09:00:00Z")},
			{ID: "tonight", DueDate: strp("2025-03-10T19:00:00Z")},
			{ID: "done-late", Done: true, DueDate: strp("2025-03-10T08:00:00Z")},
		},
	}
	_, b := agenda.DayView(in, day(2025, 3, 10), now)
	if len(b.Overdue) != 1 || b.Overdue[0].ID != "late" {
		t.Fatalf("overdue: %+v", b.Overdue)
	}
	if len(b.Evening) != 1 || b.Evening[0].ID != "tonight" {
		t.Fatalf("evening: %+v", b.Evening)
	}
	// completed item is never overdue; 08:00 puts it in the morning bucket
	if len(b.Morning) != 1 || b.Morning[0].ID != "done-late" {
		t.Fatalf("morning: %+v", b.Morning)
	}
}

func TestBucketBoundaries(t *testing.T) {
	now := day(2025, 3, 10) // nothing overdue at midnight
	in := agenda.Inputs{
		Tasks: []domain.Task{
			{ID: "noon", DueDate: strp("2025-03-10T12:00:00Z")},
			{ID: "late-afternoon", DueDate: strp("2025-03-10T16:59:00Z")},
			{ID: "five", DueDate: strp("2025-03-10T17:00:00Z")},
		},
	}
	_, b := agenda.DayView(in, day(2025, 3, 10), now)
	if len(b.Afternoon) != 2 {
		t.Fatalf("afternoon: %+v", b.Afternoon)
	}
	if len(b.Evening) != 1 || b.Evening[0].ID != "five" {
		t.Fatalf("evening: %+v", b.Evening)
	}
}

func TestWeeklyHabitOnlyOnTargetDays(t *testing.T) {
	in := agenda.Inputs{
		Habits: []domain.Habit{
			// 2025-03-10 is a Monday (weekday 1)
			{ID: "h1", Name: "gym", Frequency: "weekly", TargetDays: []int{1, 4}},
		},
	}
	week := agenda.Week(in, day(2025, 3, 10))
	var hits []string
	for _, d := range week {
		for _, it := range d.Items {
			hits = append(hits, d.Date)
			_ = it
		}
	}
	if len(hits) != 2 || hits[0] != "2025-03-10" || hits[1] != "2025-03-13" {
		t.Fatalf("hits: %v", hits)
	}
}

func TestHabitCheckDateShortCircuit(t *testing.T) {
	in := agenda.Inputs{
		Habits: []domain.Habit{
			{ID: "h1", Frequency: "weekly", TargetDays: []int{2}, CheckDate: strp("2025-03-10")},
		},
	}
	// CheckDate pins the instance to Monday even though Tuesday is the target day.
	d, _ := agenda.DayView(in, day(2025, 3, 10), day(2025, 3, 10))
	if len(d.Items) != 1 {
		t.Fatalf("expected pinned instance, got %+v", d.Items)
	}
	d2, _ := agenda.DayView(in, day(2025, 3, 11), day(2025, 3, 11))
	if len(d2.Items) != 0 {
		t.Fatalf("expected no instance on target weekday, got %+v", d2.Items)
	}
}

func TestHideCompleted(t *testing.T) {
	in := agenda.Inputs{
		Tasks:         []domain.Task{{ID: "t1", Done: true, DueDate: strp("2025-03-10T10:00:00Z")}},
		HideCompleted: true,
	}
	d, _ := agenda.DayView(in, day(2025, 3, 10), day(2025, 3, 10))
	if len(d.Items) != 0 {
		t.Fatalf("expected hidden, got %+v", d.Items)
	}
}

func TestDedupeByIDAndInstanceDate(t *testing.T) {
	inst := "2025-03-10"
	in := agenda.Inputs{
		External: []domain.CalendarEvent{
			{ID: "e1", Title: "sync", DueDate: strp("2025-03-10T11:00:00Z"), InstanceDate: &inst},
			{ID: "e1", Title: "sync", DueDate: strp("2025-03-10T11:00:00Z"), InstanceDate: &inst},
		},
	}
	d, _ := agenda.DayView(in, day(2025, 3, 10), day(2025, 3, 10))
	if len(d.Items) != 1 {
		t.Fatalf("expected de-dup, got %d", len(d.Items))
	}
	if d.Items[0].Type != "external" {
		t.Fatalf("type: %s", d.Items[0].Type)
	}
}

func TestWeekStart(t *testing.T) {
	// 2025-03-12 is a Wednesday
	ref := time.Date(2025, 3, 12, 16, 30, 0, 0, time.UTC)
	start := agenda.WeekStart(ref, time.Monday)
	if start.Format("2006-01-02") != "2025-03-10" {
		t.Fatalf("monday start: %v", start)
	}
	start = agenda.WeekStart(ref, time.Sunday)
	if start.Format("2006-01-02") != "2025-03-09" {
		t.Fatalf("sunday start: %v", start)
	}
	if start.Hour() != 0 {
		t.Fatalf("expected midnight, got %v", start)
	}
}
