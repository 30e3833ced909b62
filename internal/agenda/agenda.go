// Package agenda merges tasks, habits and external calendar events into
// time-ordered day views. The aggregation is a pure projection: it never
// mutates its inputs and is recomputed whenever the underlying sets change.
package agenda

import (
	"sort"
	"time"

	"dayline/internal/domain"
)

const dayFormat = "2006-01-02"

// Inputs are the entity sets a view is derived from. External events are
// read-only and non-draggable; they pass through untouched apart from
// ordering. HideCompleted drops completed tasks instead of flagging them.
type Inputs struct {
	Tasks         []domain.Task
	Habits        []domain.Habit
	External      []domain.CalendarEvent
	HideCompleted bool
}

// Day is one day's merged, time-ordered item list.
type Day struct {
	Date  string                 `json:"date"`
	Items []domain.CalendarEvent `json:"items"`
}

// Buckets is the single-day grouping. An overdue item appears only under
// Overdue, never in a time-of-day bucket. Items with no resolvable time
// land in Morning.
type Buckets struct {
	Overdue   []domain.CalendarEvent `json:"overdue"`
	Morning   []domain.CalendarEvent `json:"morning"`
	Afternoon []domain.CalendarEvent `json:"afternoon"`
	Evening   []domain.CalendarEvent `json:"evening"`
}

// WeekStart returns the start of the week containing ref for the configured
// week-start weekday, at local midnight.
func WeekStart(ref time.Time, startDay time.Weekday) time.Time {
	y, m, d := ref.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, ref.Location())
	diff := (int(day.Weekday()) - int(startDay) + 7) % 7
	return day.AddDate(0, 0, -diff)
}

// Week derives seven day views starting at start (local midnight).
func Week(in Inputs, start time.Time) []Day {
	out := make([]Day, 0, 7)
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		out = append(out, Day{Date: day.Format(dayFormat), Items: itemsFor(in, day)})
	}
	return out
}

// DayView derives the merged list for one day plus its overdue/time-of-day
// buckets, evaluated against now.
func DayView(in Inputs, day time.Time, now time.Time) (Day, Buckets) {
	items := itemsFor(in, day)
	var b Buckets
	for _, it := range items {
		if overdue(it, now) {
			b.Overdue = append(b.Overdue, it)
			continue
		}
		switch min := minutesOf(it); {
		case min >= 17*60:
			b.Evening = append(b.Evening, it)
		case min >= 12*60:
			b.Afternoon = append(b.Afternoon, it)
		default:
			b.Morning = append(b.Morning, it)
		}
	}
	return Day{Date: day.Format(dayFormat), Items: items}, b
}

func itemsFor(in Inputs, day time.Time) []domain.CalendarEvent {
	dayKey := day.Format(dayFormat)
	items := make([]domain.CalendarEvent, 0, len(in.Tasks)+len(in.Habits))
	for _, t := range in.Tasks {
		if t.DueDate == nil {
			continue
		}
		due, err := time.Parse(time.RFC3339, *t.DueDate)
		if err != nil || due.Format(dayFormat) != dayKey {
			continue
		}
		if t.Done && in.HideCompleted {
			continue
		}
		items = append(items, taskEvent(t, dayKey))
	}
	for _, h := range in.Habits {
		if !habitDue(h, day) {
			continue
		}
		items = append(items, habitEvent(h, day, dayKey))
	}
	for _, ev := range in.External {
		if ev.DueDate == nil {
			continue
		}
		due, err := time.Parse(time.RFC3339, *ev.DueDate)
		if err != nil || due.Format(dayFormat) != dayKey {
			continue
		}
		ext := ev
		ext.Type = "external"
		if ext.InstanceDate == nil {
			ext.InstanceDate = &dayKey
		}
		items = append(items, ext)
	}
	items = dedupe(items)
	// timed items by minutes-since-midnight; untimed after all timed,
	// stable among themselves
	sort.SliceStable(items, func(i, j int) bool {
		a, b := minutesOf(items[i]), minutesOf(items[j])
		if a < 0 {
			return false
		}
		if b < 0 {
			return true
		}
		return a < b
	})
	return items
}

// habitDue reports whether the habit applies to the given day. A
// pre-resolved CheckDate short-circuits the weekday computation.
func habitDue(h domain.Habit, day time.Time) bool {
	if h.CheckDate != nil {
		return *h.CheckDate == day.Format(dayFormat)
	}
	switch h.Frequency {
	case "daily":
		return true
	case "weekly", "custom":
		wd := int(day.Weekday())
		for _, d := range h.TargetDays {
			if d == wd {
				return true
			}
		}
	}
	return false
}

func taskEvent(t domain.Task, dayKey string) domain.CalendarEvent {
	instance := dayKey
	if t.InstanceDate != nil {
		instance = *t.InstanceDate
	}
	return domain.CalendarEvent{
		ID:           t.ID,
		Title:        t.Title,
		DueDate:      t.DueDate,
		Priority:     t.Priority,
		Type:         "task",
		Completed:    t.Done,
		ColumnID:     t.ColumnID,
		InstanceDate: &instance,
	}
}

func habitEvent(h domain.Habit, day time.Time, dayKey string) domain.CalendarEvent {
	ev := domain.CalendarEvent{
		ID:           h.ID,
		Title:        h.Name,
		Type:         "habit",
		Completed:    h.CompletedToday,
		InstanceDate: &dayKey,
	}
	if h.ReminderTime != nil {
		if hh, mm, ok := parseClock(*h.ReminderTime); ok {
			due := time.Date(day.Year(), day.Month(), day.Day(), hh, mm, 0, 0, day.Location()).Format(time.RFC3339)
			ev.DueDate = &due
		}
	}
	return ev
}

func dedupe(items []domain.CalendarEvent) []domain.CalendarEvent {
	seen := make(map[string]bool, len(items))
	out := items[:0:0]
	for _, it := range items {
		key := it.ID
		if it.InstanceDate != nil {
			key += "|" + *it.InstanceDate
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}

// minutesOf returns the item's minutes-since-midnight sort key as written
// in its own offset, or -1 when no time is resolvable. Due dates are stored
// in the user's local offset, so no zone conversion happens here.
func minutesOf(ev domain.CalendarEvent) int {
	if ev.DueDate == nil {
		return -1
	}
	t, err := time.Parse(time.RFC3339, *ev.DueDate)
	if err != nil {
		return -1
	}
	return t.Hour()*60 + t.Minute()
}

func overdue(ev domain.CalendarEvent, now time.Time) bool {
	if ev.Completed || ev.DueDate == nil {
		return false
	}
	t, err := time.Parse(time.RFC3339, *ev.DueDate)
	if err != nil {
		return false
	}
	return t.Before(now)
}

func parseClock(hhmm string) (int, int, bool) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, 0, false
	}
	return t.Hour(), t.Minute(), true
}
