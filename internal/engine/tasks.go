package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"dayline/internal/domain"
	"dayline/internal/events"
	"dayline/internal/order"
	"dayline/internal/repo"
	"dayline/internal/schedule"
)

var priorities = map[string]bool{"low": true, "medium": true, "high": true, "urgent": true}

// TaskCreateOptions are parameters for creating a task.
type TaskCreateOptions struct {
	ColumnID         string
	Title            string
	Notes            string
	DueDate          string
	Priority         string
	Labels           []string
	Subtasks         []domain.Subtask
	RecurringPattern string
	RecurringEndDate string
}

func (e Engine) CreateTask(ctx context.Context, opts TaskCreateOptions) (domain.Task, error) {
	if strings.TrimSpace(opts.Title) == "" {
		return domain.Task{}, invalid("title", "is required")
	}
	if opts.Priority == "" {
		opts.Priority = "medium"
	}
	if !priorities[opts.Priority] {
		return domain.Task{}, invalid("priority", fmt.Sprintf("unknown priority %q", opts.Priority))
	}
	if _, err := schedule.ParsePattern(opts.RecurringPattern); err != nil {
		return domain.Task{}, invalid("recurring_pattern", err.Error())
	}
	if opts.DueDate != "" {
		if _, err := time.Parse(time.RFC3339, opts.DueDate); err != nil {
			return domain.Task{}, invalid("due_date", "must be RFC3339")
		}
	}
	if opts.RecurringEndDate != "" {
		if _, err := time.Parse(time.RFC3339, opts.RecurringEndDate); err != nil {
			return domain.Task{}, invalid("recurring_end_date", "must be RFC3339")
		}
	}
	col, err := e.Repo.GetColumn(ctx, e.DB, opts.ColumnID)
	if err != nil {
		return domain.Task{}, err
	}
	b, err := e.Repo.GetBoard(ctx, col.BoardID)
	if err != nil {
		return domain.Task{}, err
	}
	now := e.nowISO()
	t := domain.Task{
		ID:               uuid.NewString(),
		Title:            opts.Title,
		ColumnID:         col.ID,
		Space:            b.Space,
		Notes:            opts.Notes,
		DueDate:          optionalString(opts.DueDate),
		Priority:         opts.Priority,
		Labels:           opts.Labels,
		Subtasks:         opts.Subtasks,
		RecurringPattern: opts.RecurringPattern,
		RecurringEndDate: optionalString(opts.RecurringEndDate),
		InstanceDate:     instanceDateOf(opts.DueDate),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertTask(ctx, tx, t); err != nil {
		return domain.Task{}, err
	}
	if err := e.appendToTaskOrder(ctx, tx, col, t.ID); err != nil {
		return domain.Task{}, err
	}
	if err := e.Events.Append(ctx, tx, "task.created", "task", t.ID, events.EventPayload{"title": t.Title, "column_id": t.ColumnID}); err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

// TaskUpdateOptions are partial-update parameters. Pointer fields are
// applied when non-nil; Clear* flags null the stored value.
type TaskUpdateOptions struct {
	ID               string
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
}

func (e Engine) UpdateTask(ctx context.Context, opts TaskUpdateOptions) (domain.Task, error) {
	if opts.Title != nil && strings.TrimSpace(*opts.Title) == "" {
		return domain.Task{}, invalid("title", "cannot be empty")
	}
	if opts.Priority != nil && !priorities[*opts.Priority] {
		return domain.Task{}, invalid("priority", fmt.Sprintf("unknown priority %q", *opts.Priority))
	}
	if opts.RecurringPattern != nil {
		if _, err := schedule.ParsePattern(*opts.RecurringPattern); err != nil {
			return domain.Task{}, invalid("recurring_pattern", err.Error())
		}
	}
	if opts.DueDate != nil {
		if _, err := time.Parse(time.RFC3339, *opts.DueDate); err != nil {
			return domain.Task{}, invalid("due_date", "must be RFC3339")
		}
	}
	if _, err := e.Repo.GetTask(ctx, opts.ID); err != nil {
		return domain.Task{}, err
	}
	u := repo.TaskUpdate{
		Title:            opts.Title,
		Notes:            opts.Notes,
		Priority:         opts.Priority,
		DueDate:          opts.DueDate,
		ClearDueDate:     opts.ClearDueDate,
		Done:             opts.Done,
		Labels:           opts.Labels,
		LabelsSet:        opts.LabelsSet,
		Subtasks:         opts.Subtasks,
		SubtasksSet:      opts.SubtasksSet,
		RecurringPattern: opts.RecurringPattern,
		RecurringEndDate: opts.RecurringEndDate,
		ClearRecurrence:  opts.ClearRecurrence,
		UpdatedAt:        e.nowISO(),
	}
	if opts.DueDate != nil {
		u.InstanceDate = instanceDateOf(*opts.DueDate)
	}
	if opts.Done != nil && !*opts.Done {
		u.ClearCompletedAt = true
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateTask(ctx, tx, opts.ID, u); err != nil {
		return domain.Task{}, err
	}
	if err := e.Events.Append(ctx, tx, "task.updated", "task", opts.ID, nil); err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Task{}, err
	}
	return e.Repo.GetTask(ctx, opts.ID)
}

// DeleteTask removes the task and its slot in the owning column's order.
// Lineage rows are left alone: deleting an occurrence never cascades to
// its series and vice versa.
func (e Engine) DeleteTask(ctx context.Context, taskID string) error {
	t, err := e.Repo.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	col, err := e.Repo.GetColumn(ctx, e.DB, t.ColumnID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteTask(ctx, tx, taskID); err != nil {
		return err
	}
	if col.ID != "" && order.Contains(col.TaskOrder, taskID) {
		next := make([]string, 0, len(col.TaskOrder))
		for _, id := range col.TaskOrder {
			if id != taskID {
				next = append(next, id)
			}
		}
		if err := e.Repo.UpdateTaskOrder(ctx, tx, col.ID, next); err != nil {
			return err
		}
	}
	if err := e.Events.Append(ctx, tx, "task.deleted", "task", taskID, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// ReorderTask moves one task to a target index inside its column. A target
// equal to the current index (or a drop onto itself) emits no mutation.
func (e Engine) ReorderTask(ctx context.Context, columnID, taskID string, targetIndex int) (ColumnView, error) {
	cv, err := e.Column(ctx, columnID)
	if err != nil {
		return ColumnView{}, err
	}
	if !order.Contains(cv.TaskOrder, taskID) {
		return ColumnView{}, fmt.Errorf("task %s in column %s: %w", taskID, columnID, repo.ErrNotFound)
	}
	next, changed := order.Reorder(cv.TaskOrder, taskID, targetIndex)
	if !changed {
		return cv, nil
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return ColumnView{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateTaskOrder(ctx, tx, columnID, next); err != nil {
		return ColumnView{}, err
	}
	if err := e.Events.Append(ctx, tx, "tasks.reordered", "column", columnID, events.EventPayload{"task_order": next}); err != nil {
		return ColumnView{}, err
	}
	if err := tx.Commit(); err != nil {
		return ColumnView{}, err
	}
	return e.Column(ctx, columnID)
}

// SetTaskOrder replaces a column's task order wholesale, reconciled against
// the tasks that actually live there.
func (e Engine) SetTaskOrder(ctx context.Context, columnID string, taskIDs []string) (ColumnView, error) {
	cv, err := e.Column(ctx, columnID)
	if err != nil {
		return ColumnView{}, err
	}
	tasks, err := e.Repo.ListTasksByColumn(ctx, e.DB, columnID)
	if err != nil {
		return ColumnView{}, err
	}
	existing := make([]string, len(tasks))
	for i, t := range tasks {
		existing[i] = t.ID
	}
	next := order.Reconcile(taskIDs, existing)
	if order.Equal(next, cv.TaskOrder) {
		return cv, nil
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return ColumnView{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateTaskOrder(ctx, tx, columnID, next); err != nil {
		return ColumnView{}, err
	}
	if err := e.Events.Append(ctx, tx, "tasks.reordered", "column", columnID, events.EventPayload{"task_order": next}); err != nil {
		return ColumnView{}, err
	}
	if err := tx.Commit(); err != nil {
		return ColumnView{}, err
	}
	return e.Column(ctx, columnID)
}

// MoveResult reports a completed move plus the advisory WIP state of the
// destination column.
type MoveResult struct {
	Task        domain.Task `json:"task"`
	WIPExceeded bool        `json:"wip_exceeded"`
}

// MoveTask moves a task into toColumnID at targetIndex (negative appends).
// Within a column it degenerates to a reorder. Across columns — including
// across boards — the source order, destination order and the task's
// column/space are updated in one transaction, so the order arrays can
// never desynchronize from the task's actual parent; a failure rolls back
// everything and is surfaced to the caller.
func (e Engine) MoveTask(ctx context.Context, taskID, toColumnID string, targetIndex int) (MoveResult, error) {
	t, err := e.Repo.GetTask(ctx, taskID)
	if err != nil {
		return MoveResult{}, err
	}
	dst, err := e.Column(ctx, toColumnID)
	if err != nil {
		return MoveResult{}, err
	}
	if t.ColumnID == toColumnID {
		// the append sentinel means "last"; Reorder clamps negatives to the
		// front, so translate before degenerating to a reorder
		if targetIndex < 0 {
			targetIndex = len(dst.TaskOrder) - 1
		}
		cv, err := e.ReorderTask(ctx, toColumnID, taskID, targetIndex)
		if err != nil {
			return MoveResult{}, err
		}
		t, err = e.Repo.GetTask(ctx, taskID)
		if err != nil {
			return MoveResult{}, err
		}
		return MoveResult{Task: t, WIPExceeded: cv.WIPExceeded}, nil
	}
	src, err := e.Column(ctx, t.ColumnID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return MoveResult{}, err
	}
	dstBoard, err := e.Repo.GetBoard(ctx, dst.BoardID)
	if err != nil {
		return MoveResult{}, err
	}
	newSrc, newDst := order.Move(src.TaskOrder, dst.TaskOrder, taskID, targetIndex)

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return MoveResult{}, err
	}
	defer tx.Rollback()
	u := repo.TaskUpdate{ColumnID: &toColumnID, Space: &dstBoard.Space, UpdatedAt: e.nowISO()}
	if err := e.Repo.UpdateTask(ctx, tx, taskID, u); err != nil {
		return MoveResult{}, err
	}
	if src.ID != "" {
		if err := e.Repo.UpdateTaskOrder(ctx, tx, src.ID, newSrc); err != nil {
			return MoveResult{}, err
		}
	}
	if err := e.Repo.UpdateTaskOrder(ctx, tx, toColumnID, newDst); err != nil {
		return MoveResult{}, err
	}
	if err := e.Events.Append(ctx, tx, "task.moved", "task", taskID, events.EventPayload{
		"from_column": src.ID,
		"to_column":   toColumnID,
		"index":       order.IndexOf(newDst, taskID),
	}); err != nil {
		return MoveResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return MoveResult{}, err
	}
	moved, err := e.Repo.GetTask(ctx, taskID)
	if err != nil {
		return MoveResult{}, err
	}
	return MoveResult{
		Task:        moved,
		WIPExceeded: dst.WIPLimit != nil && len(newDst) > *dst.WIPLimit,
	}, nil
}

// appendToTaskOrder runs inside the caller's transaction; its reads go
// through the tx so a task inserted moments earlier is visible.
func (e Engine) appendToTaskOrder(ctx context.Context, tx *sql.Tx, col domain.Column, taskID string) error {
	tasks, err := e.Repo.ListTasksByColumn(ctx, tx, col.ID)
	if err != nil {
		return err
	}
	existing := make([]string, len(tasks))
	for i, t := range tasks {
		existing[i] = t.ID
	}
	next := order.Reconcile(col.TaskOrder, existing)
	if !order.Contains(next, taskID) {
		next = append(next, taskID)
	}
	return e.Repo.UpdateTaskOrder(ctx, tx, col.ID, next)
}

func (e Engine) Task(ctx context.Context, taskID string) (domain.Task, error) {
	return e.Repo.GetTask(ctx, taskID)
}

func (e Engine) RecentEvents(ctx context.Context, limit int) ([]domain.Event, error) {
	return e.Repo.ListEvents(ctx, limit)
}

func instanceDateOf(due string) *string {
	if due == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, due)
	if err != nil {
		return nil
	}
	d := t.Format("2006-01-02")
	return &d
}
