package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"dayline/internal/domain"
)

const taskColumns = `id,title,column_id,space,COALESCE(notes,''),due_date,priority,done,labels_json,subtasks_json,recurring_pattern,recurring_end_date,instance_date,created_at,updated_at,completed_at`

func (r Repo) InsertTask(ctx context.Context, tx *sql.Tx, t domain.Task) error {
	labels, err := encodeOptionalSlice(t.Labels)
	if err != nil {
		return err
	}
	subtasks, err := encodeSubtasks(t.Subtasks)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO tasks(id,title,column_id,space,notes,due_date,priority,done,labels_json,subtasks_json,recurring_pattern,recurring_end_date,instance_date,created_at,updated_at,completed_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.Title, t.ColumnID, t.Space, nullable(t.Notes), nullableStringPtr(t.DueDate), t.Priority, boolInt(t.Done),
		labels, subtasks, nullable(t.RecurringPattern), nullableStringPtr(t.RecurringEndDate), nullableStringPtr(t.InstanceDate),
		t.CreatedAt, t.UpdatedAt, nullableStringPtr(t.CompletedAt))
	return err
}

func (r Repo) GetTask(ctx context.Context, id string) (domain.Task, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id)
	t, err := scanTask(row.Scan)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	t.ParentTaskID, _ = r.SeriesOf(ctx, r.DB, t.ID)
	return t, nil
}

func (r Repo) ListTasksByColumn(ctx context.Context, q Querier, columnID string) ([]domain.Task, error) {
	return r.queryTasks(ctx, q, `SELECT `+taskColumns+` FROM tasks WHERE column_id=? ORDER BY created_at, id`, columnID)
}

// ListTasksDueBetween returns tasks whose due date falls inside [from, to),
// both RFC3339. An empty space spans all spaces.
func (r Repo) ListTasksDueBetween(ctx context.Context, space, from, to string) ([]domain.Task, error) {
	q := `SELECT ` + taskColumns + ` FROM tasks WHERE due_date IS NOT NULL AND due_date>=? AND due_date<?`
	args := []any{from, to}
	if space != "" {
		q += ` AND space=?`
		args = append(args, space)
	}
	return r.queryTasks(ctx, r.DB, q+` ORDER BY due_date, id`, args...)
}

// ListOverdueRecurring returns recurring tasks that are past due, not done
// and carry a pattern — candidates for the overdue materialization sweep.
func (r Repo) ListOverdueRecurring(ctx context.Context, now string) ([]domain.Task, error) {
	return r.queryTasks(ctx, r.DB, `SELECT `+taskColumns+` FROM tasks WHERE recurring_pattern IS NOT NULL AND done=0 AND due_date IS NOT NULL AND due_date<? ORDER BY due_date, id`, now)
}

type TaskUpdate struct {
	Title            *string
	Notes            *string
	Priority         *string
	DueDate          *string
	ClearDueDate     bool
	Done             *bool
	Labels           []string
	LabelsSet        bool
	Subtasks         []domain.Subtask
	SubtasksSet      bool
	RecurringPattern *string
	RecurringEndDate *string
	ClearRecurrence  bool
	InstanceDate     *string
	ColumnID         *string
	Space            *string
	CompletedAt      *string
	ClearCompletedAt bool
	UpdatedAt        string
}

func (r Repo) UpdateTask(ctx context.Context, tx *sql.Tx, id string, u TaskUpdate) error {
	var (
		fields []string
		args   []any
	)
	set := func(expr string, v any) {
		fields = append(fields, expr)
		args = append(args, v)
	}
	if u.Title != nil {
		set("title=?", *u.Title)
	}
	if u.Notes != nil {
		set("notes=?", nullable(*u.Notes))
	}
	if u.Priority != nil {
		set("priority=?", *u.Priority)
	}
	if u.ClearDueDate {
		fields = append(fields, "due_date=NULL")
	} else if u.DueDate != nil {
		set("due_date=?", *u.DueDate)
	}
	if u.Done != nil {
		set("done=?", boolInt(*u.Done))
	}
	if u.LabelsSet {
		labels, err := encodeOptionalSlice(u.Labels)
		if err != nil {
			return err
		}
		set("labels_json=?", labels)
	}
	if u.SubtasksSet {
		subtasks, err := encodeSubtasks(u.Subtasks)
		if err != nil {
			return err
		}
		set("subtasks_json=?", subtasks)
	}
	if u.ClearRecurrence {
		fields = append(fields, "recurring_pattern=NULL", "recurring_end_date=NULL")
	} else {
		if u.RecurringPattern != nil {
			set("recurring_pattern=?", nullable(*u.RecurringPattern))
		}
		if u.RecurringEndDate != nil {
			set("recurring_end_date=?", *u.RecurringEndDate)
		}
	}
	if u.InstanceDate != nil {
		set("instance_date=?", *u.InstanceDate)
	}
	if u.ColumnID != nil {
		set("column_id=?", *u.ColumnID)
	}
	if u.Space != nil {
		set("space=?", *u.Space)
	}
	if u.ClearCompletedAt {
		fields = append(fields, "completed_at=NULL")
	} else if u.CompletedAt != nil {
		set("completed_at=?", *u.CompletedAt)
	}
	if len(fields) == 0 {
		return nil
	}
	set("updated_at=?", u.UpdatedAt)
	args = append(args, id)
	res, err := tx.ExecContext(ctx, fmt.Sprintf(`UPDATE tasks SET %s WHERE id=?`, strings.Join(fields, ",")), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteTask(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	// lineage rows referencing the task stay: the backlink is weak and
	// must not cascade either direction
	return nil
}

// Lineage

func (r Repo) InsertLineage(ctx context.Context, tx *sql.Tx, occurrenceID, seriesID string) error {
	_, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO task_lineage(occurrence_id,series_id) VALUES (?,?)`, occurrenceID, seriesID)
	return err
}

// SeriesOf returns the series id an occurrence descends from, or nil.
func (r Repo) SeriesOf(ctx context.Context, q Querier, occurrenceID string) (*string, error) {
	var series string
	err := q.QueryRowContext(ctx, `SELECT series_id FROM task_lineage WHERE occurrence_id=?`, occurrenceID).Scan(&series)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &series, nil
}

// HasPendingOccurrence reports whether the series already has an
// uncompleted occurrence on file. Used to keep recurrence advancement
// idempotent under retries; callers completing inside a transaction must
// pass that transaction so the in-flight completion is observed.
func (r Repo) HasPendingOccurrence(ctx context.Context, q Querier, seriesID string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT count(*) FROM task_lineage l JOIN tasks t ON t.id=l.occurrence_id WHERE l.series_id=? AND t.done=0`,
		seriesID).Scan(&n)
	return n > 0, err
}

func (r Repo) queryTasks(ctx context.Context, q Querier, query string, args ...any) ([]domain.Task, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range res {
		res[i].ParentTaskID, _ = r.SeriesOf(ctx, q, res[i].ID)
	}
	return res, nil
}

func scanTask(scan func(...any) error) (domain.Task, error) {
	var t domain.Task
	var done int
	var due, labels, subtasks, pattern, endDate, instance, completedAt sql.NullString
	err := scan(&t.ID, &t.Title, &t.ColumnID, &t.Space, &t.Notes, &due, &t.Priority, &done,
		&labels, &subtasks, &pattern, &endDate, &instance, &t.CreatedAt, &t.UpdatedAt, &completedAt)
	if err != nil {
		return t, err
	}
	t.Done = done != 0
	t.DueDate = stringPtr(due)
	t.RecurringEndDate = stringPtr(endDate)
	t.InstanceDate = stringPtr(instance)
	t.CompletedAt = stringPtr(completedAt)
	if pattern.Valid {
		t.RecurringPattern = pattern.String
	}
	if labels.Valid && labels.String != "" {
		_ = json.Unmarshal([]byte(labels.String), &t.Labels)
	}
	if subtasks.Valid && subtasks.String != "" {
		_ = json.Unmarshal([]byte(subtasks.String), &t.Subtasks)
	}
	return t, nil
}

func encodeOptionalSlice(in []string) (any, error) {
	if len(in) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func encodeSubtasks(in []domain.Subtask) (any, error) {
	if len(in) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid || v.String == "" {
		return nil
	}
	s := v.String
	return &s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
