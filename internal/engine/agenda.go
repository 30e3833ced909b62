package engine

import (
	"context"
	"fmt"
	"time"

	"dayline/internal/agenda"
	"dayline/internal/domain"
)

// AgendaDayView is one day with its overdue/time-of-day grouping.
type AgendaDayView struct {
	agenda.Day
	Buckets agenda.Buckets `json:"buckets"`
}

// AgendaWeekView is the seven-day window starting at the configured
// week-start day.
type AgendaWeekView struct {
	Start string       `json:"start"`
	Days  []agenda.Day `json:"days"`
}

// AgendaDay merges the space's due tasks, applicable habits and any
// caller-supplied external events into the view for one day. date is
// YYYY-MM-DD; empty means today.
func (e Engine) AgendaDay(ctx context.Context, space, date string, external []domain.CalendarEvent) (AgendaDayView, error) {
	day, err := e.refDate(date)
	if err != nil {
		return AgendaDayView{}, err
	}
	in, err := e.agendaInputs(ctx, space, day, day.AddDate(0, 0, 1), external)
	if err != nil {
		return AgendaDayView{}, err
	}
	d, buckets := agenda.DayView(in, day, e.now())
	return AgendaDayView{Day: d, Buckets: buckets}, nil
}

// AgendaWeek merges the space's entities into the week containing date.
func (e Engine) AgendaWeek(ctx context.Context, space, date string, external []domain.CalendarEvent) (AgendaWeekView, error) {
	ref, err := e.refDate(date)
	if err != nil {
		return AgendaWeekView{}, err
	}
	start := agenda.WeekStart(ref, e.Config.WeekStartDay())
	in, err := e.agendaInputs(ctx, space, start, start.AddDate(0, 0, 7), external)
	if err != nil {
		return AgendaWeekView{}, err
	}
	return AgendaWeekView{
		Start: start.Format("2006-01-02"),
		Days:  agenda.Week(in, start),
	}, nil
}

func (e Engine) agendaInputs(ctx context.Context, space string, from, to time.Time, external []domain.CalendarEvent) (agenda.Inputs, error) {
	if space != "" && !e.Config.HasSpace(space) {
		return agenda.Inputs{}, invalid("space", fmt.Sprintf("unknown space %q", space))
	}
	tasks, err := e.Repo.ListTasksDueBetween(ctx, space, from.Format(time.RFC3339), to.Format(time.RFC3339))
	if err != nil {
		return agenda.Inputs{}, err
	}
	habits, err := e.ListHabits(ctx, space)
	if err != nil {
		return agenda.Inputs{}, err
	}
	return agenda.Inputs{
		Tasks:         tasks,
		Habits:        habits,
		External:      external,
		HideCompleted: e.Config.Agenda.HideCompleted,
	}, nil
}

func (e Engine) refDate(date string) (time.Time, error) {
	if date == "" {
		y, m, d := e.now().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, e.now().Location()), nil
	}
	t, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return time.Time{}, invalid("date", "must be YYYY-MM-DD")
	}
	return t, nil
}
