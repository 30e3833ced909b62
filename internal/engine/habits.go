package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"dayline/internal/domain"
	"dayline/internal/events"
)

var frequencies = map[string]bool{"daily": true, "weekly": true, "custom": true}

type HabitCreateOptions struct {
	Name         string
	Space        string
	Frequency    string
	TargetDays   []int
	ReminderTime string
}

func (e Engine) CreateHabit(ctx context.Context, opts HabitCreateOptions) (domain.Habit, error) {
	if strings.TrimSpace(opts.Name) == "" {
		return domain.Habit{}, invalid("name", "is required")
	}
	if !e.Config.HasSpace(opts.Space) {
		return domain.Habit{}, invalid("space", fmt.Sprintf("unknown space %q", opts.Space))
	}
	if opts.Frequency == "" {
		opts.Frequency = "daily"
	}
	if !frequencies[opts.Frequency] {
		return domain.Habit{}, invalid("frequency", fmt.Sprintf("unknown frequency %q", opts.Frequency))
	}
	for _, d := range opts.TargetDays {
		if d < 0 || d > 6 {
			return domain.Habit{}, invalid("target_days", "days must be 0 (Sunday) through 6 (Saturday)")
		}
	}
	if opts.ReminderTime != "" {
		if _, err := time.Parse("15:04", opts.ReminderTime); err != nil {
			return domain.Habit{}, invalid("reminder_time", "must be HH:MM")
		}
	}
	h := domain.Habit{
		ID:           uuid.NewString(),
		Name:         opts.Name,
		Space:        opts.Space,
		Frequency:    opts.Frequency,
		TargetDays:   opts.TargetDays,
		ReminderTime: optionalString(opts.ReminderTime),
		CreatedAt:    e.nowISO(),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Habit{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertHabit(ctx, tx, h); err != nil {
		return domain.Habit{}, err
	}
	if err := e.Events.Append(ctx, tx, "habit.created", "habit", h.ID, events.EventPayload{"name": h.Name}); err != nil {
		return domain.Habit{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Habit{}, err
	}
	return h, nil
}

func (e Engine) ListHabits(ctx context.Context, space string) ([]domain.Habit, error) {
	habits, err := e.Repo.ListHabits(ctx, space)
	if err != nil {
		return nil, err
	}
	today := e.now().Format("2006-01-02")
	for i := range habits {
		// completed_today is only true on the day of the last check
		if habits[i].LastChecked == nil || *habits[i].LastChecked != today {
			habits[i].CompletedToday = false
		}
	}
	return habits, nil
}

// CheckHabit marks today's check for the habit. Checking twice on the same
// day is a no-op; a check on the day after the previous one extends the
// streak, any later day restarts it at 1.
func (e Engine) CheckHabit(ctx context.Context, habitID string) (domain.Habit, error) {
	h, err := e.Repo.GetHabit(ctx, habitID)
	if err != nil {
		return domain.Habit{}, err
	}
	now := e.now()
	today := now.Format("2006-01-02")
	if h.LastChecked != nil && *h.LastChecked == today {
		h.CompletedToday = true
		return h, nil
	}
	streak := 1
	if h.LastChecked != nil {
		yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
		if *h.LastChecked == yesterday {
			streak = h.CurrentStreak + 1
		}
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Habit{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateHabitCheck(ctx, tx, habitID, true, streak, today); err != nil {
		return domain.Habit{}, err
	}
	if err := e.Events.Append(ctx, tx, "habit.checked", "habit", habitID, events.EventPayload{"streak": streak}); err != nil {
		return domain.Habit{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Habit{}, err
	}
	return e.Repo.GetHabit(ctx, habitID)
}

// UncheckHabit undoes today's check and decrements the streak. Unchecking
// a habit that was not checked today changes nothing.
func (e Engine) UncheckHabit(ctx context.Context, habitID string) (domain.Habit, error) {
	h, err := e.Repo.GetHabit(ctx, habitID)
	if err != nil {
		return domain.Habit{}, err
	}
	today := e.now().Format("2006-01-02")
	if h.LastChecked == nil || *h.LastChecked != today {
		h.CompletedToday = false
		return h, nil
	}
	streak := h.CurrentStreak - 1
	if streak < 0 {
		streak = 0
	}
	yesterday := e.now().AddDate(0, 0, -1).Format("2006-01-02")
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Habit{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateHabitCheck(ctx, tx, habitID, false, streak, yesterday); err != nil {
		return domain.Habit{}, err
	}
	if err := e.Events.Append(ctx, tx, "habit.unchecked", "habit", habitID, nil); err != nil {
		return domain.Habit{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Habit{}, err
	}
	return e.Repo.GetHabit(ctx, habitID)
}

func (e Engine) DeleteHabit(ctx context.Context, habitID string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteHabit(ctx, tx, habitID); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "habit.deleted", "habit", habitID, nil); err != nil {
		return err
	}
	return tx.Commit()
}
