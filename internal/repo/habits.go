package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"dayline/internal/domain"
)

const habitColumns = `id,name,space,frequency,target_days_json,completed_today,current_streak,reminder_time,last_checked,created_at`

func (r Repo) InsertHabit(ctx context.Context, tx *sql.Tx, h domain.Habit) error {
	days, err := encodeIntSlice(h.TargetDays)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO habits(id,name,space,frequency,target_days_json,completed_today,current_streak,reminder_time,last_checked,created_at)
VALUES (?,?,?,?,?,?,?,?,?,?)`,
		h.ID, h.Name, h.Space, h.Frequency, days, boolInt(h.CompletedToday), h.CurrentStreak,
		nullableStringPtr(h.ReminderTime), nullableStringPtr(h.LastChecked), h.CreatedAt)
	return err
}

func (r Repo) GetHabit(ctx context.Context, id string) (domain.Habit, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+habitColumns+` FROM habits WHERE id=?`, id)
	h, err := scanHabit(row.Scan)
	if err == sql.ErrNoRows {
		return h, ErrNotFound
	}
	return h, err
}

func (r Repo) ListHabits(ctx context.Context, space string) ([]domain.Habit, error) {
	q := `SELECT ` + habitColumns + ` FROM habits`
	var args []any
	if space != "" {
		q += ` WHERE space=?`
		args = append(args, space)
	}
	q += ` ORDER BY created_at, id`
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Habit
	for rows.Next() {
		h, err := scanHabit(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, h)
	}
	return res, rows.Err()
}

func (r Repo) UpdateHabitCheck(ctx context.Context, tx *sql.Tx, id string, completedToday bool, streak int, lastChecked string) error {
	res, err := tx.ExecContext(ctx, `UPDATE habits SET completed_today=?, current_streak=?, last_checked=? WHERE id=?`,
		boolInt(completedToday), streak, lastChecked, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteHabit(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM habits WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanHabit(scan func(...any) error) (domain.Habit, error) {
	var h domain.Habit
	var completed int
	var days, reminder, lastChecked sql.NullString
	err := scan(&h.ID, &h.Name, &h.Space, &h.Frequency, &days, &completed, &h.CurrentStreak, &reminder, &lastChecked, &h.CreatedAt)
	if err != nil {
		return h, err
	}
	h.CompletedToday = completed != 0
	h.ReminderTime = stringPtr(reminder)
	h.LastChecked = stringPtr(lastChecked)
	if days.Valid && days.String != "" {
		_ = json.Unmarshal([]byte(days.String), &h.TargetDays)
	}
	return h, nil
}

func encodeIntSlice(in []int) (any, error) {
	if len(in) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
