package engine

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"dayline/internal/domain"
	"dayline/internal/events"
	"dayline/internal/repo"
	"dayline/internal/schedule"
)

// CompleteResult reports a completion plus the occurrence it materialized,
// if the task recurs and the series has not ended.
type CompleteResult struct {
	Task           domain.Task  `json:"task"`
	NextOccurrence *domain.Task `json:"next_occurrence,omitempty"`
}

// CompleteTask marks a task done and, for recurring tasks, materializes the
// next occurrence in the same transaction. Completing an already-done task
// is a no-op and never spawns another occurrence.
func (e Engine) CompleteTask(ctx context.Context, taskID string) (CompleteResult, error) {
	t, err := e.Repo.GetTask(ctx, taskID)
	if err != nil {
		return CompleteResult{}, err
	}
	if t.Done {
		return CompleteResult{Task: t}, nil
	}
	now := e.nowISO()
	done := true
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return CompleteResult{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateTask(ctx, tx, taskID, repo.TaskUpdate{Done: &done, CompletedAt: &now, UpdatedAt: now}); err != nil {
		return CompleteResult{}, err
	}
	if err := e.Events.Append(ctx, tx, "task.completed", "task", taskID, nil); err != nil {
		return CompleteResult{}, err
	}
	next, err := e.advanceSeries(ctx, tx, t)
	if err != nil {
		return CompleteResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return CompleteResult{}, err
	}
	completed, err := e.Repo.GetTask(ctx, taskID)
	if err != nil {
		return CompleteResult{}, err
	}
	return CompleteResult{Task: completed, NextOccurrence: next}, nil
}

// advanceSeries materializes the next occurrence of a recurring task, or
// returns nil when the task does not recur, the series has ended, or a
// pending occurrence already exists (the guard that keeps retried
// completions from double-advancing a series).
func (e Engine) advanceSeries(ctx context.Context, tx *sql.Tx, t domain.Task) (*domain.Task, error) {
	if t.RecurringPattern == "" || t.DueDate == nil {
		return nil, nil
	}
	pattern, err := schedule.ParsePattern(t.RecurringPattern)
	if err != nil {
		return nil, nil
	}
	due, err := time.Parse(time.RFC3339, *t.DueDate)
	if err != nil {
		return nil, nil
	}
	next, err := pattern.Next(due)
	if err != nil {
		return nil, err
	}
	var end *time.Time
	if t.RecurringEndDate != nil {
		if parsed, perr := time.Parse(time.RFC3339, *t.RecurringEndDate); perr == nil {
			end = &parsed
		}
	}
	if schedule.Ended(next, end) {
		return nil, nil
	}
	seriesID := t.ID
	if t.ParentTaskID != nil {
		seriesID = *t.ParentTaskID
	}
	// the pending check must see the completion this transaction just wrote:
	// a generated occurrence completing itself would otherwise count as
	// still pending and stall the series
	pending, err := e.Repo.HasPendingOccurrence(ctx, tx, seriesID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, nil
	}
	col, err := e.Repo.GetColumn(ctx, tx, t.ColumnID)
	if err != nil {
		return nil, err
	}
	now := e.nowISO()
	nextDue := next.Format(time.RFC3339)
	instance := next.Format("2006-01-02")
	occ := domain.Task{
		ID:               uuid.NewString(),
		Title:            t.Title,
		ColumnID:         t.ColumnID,
		Space:            t.Space,
		Notes:            t.Notes,
		DueDate:          &nextDue,
		Priority:         t.Priority,
		Labels:           t.Labels,
		Subtasks:         resetSubtasks(t.Subtasks),
		RecurringPattern: t.RecurringPattern,
		RecurringEndDate: t.RecurringEndDate,
		ParentTaskID:     &seriesID,
		InstanceDate:     &instance,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := e.Repo.InsertTask(ctx, tx, occ); err != nil {
		return nil, err
	}
	if err := e.Repo.InsertLineage(ctx, tx, occ.ID, seriesID); err != nil {
		return nil, err
	}
	if err := e.appendToTaskOrder(ctx, tx, col, occ.ID); err != nil {
		return nil, err
	}
	if err := e.Events.Append(ctx, tx, "task.recurred", "task", occ.ID, events.EventPayload{
		"series_id": seriesID,
		"due_date":  nextDue,
	}); err != nil {
		return nil, err
	}
	return &occ, nil
}

// SweepOverdue materializes the next occurrence for recurring tasks whose
// due date passed without being completed. Already-materialized series are
// skipped, so running the sweep twice changes nothing.
func (e Engine) SweepOverdue(ctx context.Context) (int, error) {
	overdue, err := e.Repo.ListOverdueRecurring(ctx, e.nowISO())
	if err != nil {
		return 0, err
	}
	created := 0
	for _, t := range overdue {
		tx, err := e.DB.BeginTx(ctx, nil)
		if err != nil {
			return created, err
		}
		occ, err := e.advanceSeries(ctx, tx, t)
		if err != nil {
			tx.Rollback()
			return created, err
		}
		if occ == nil {
			tx.Rollback()
			continue
		}
		if err := tx.Commit(); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func resetSubtasks(in []domain.Subtask) []domain.Subtask {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Subtask, len(in))
	for i, s := range in {
		out[i] = domain.Subtask{Title: s.Title}
	}
	return out
}
