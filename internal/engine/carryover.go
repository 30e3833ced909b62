package engine

import (
	"context"
	"time"

	"dayline/internal/events"
	"dayline/internal/repo"
	"dayline/internal/schedule"
)

// CarryFailure names one task a batch carry-over could not move.
type CarryFailure struct {
	TaskID string `json:"task_id"`
	Reason string `json:"reason"`
}

// CarryOverResult is the per-task outcome of a batch carry-over. A batch
// never fails wholesale: each task is moved in its own transaction.
type CarryOverResult struct {
	Succeeded []string       `json:"succeeded"`
	Failed    []CarryFailure `json:"failed,omitempty"`
}

// CarryOver reschedules each task to the resolved target. The target is
// validated and resolved once against the current clock, then applied
// best-effort: a task that cannot be moved lands in Failed and the rest
// proceed. The original due time is discarded, not preserved.
func (e Engine) CarryOver(ctx context.Context, taskIDs []string, targetKind, customDate string) (CarryOverResult, error) {
	target, err := schedule.ParseTarget(targetKind, customDate)
	if err != nil {
		return CarryOverResult{}, invalid("target", err.Error())
	}
	resolved, err := target.Resolve(e.now())
	if err != nil {
		return CarryOverResult{}, invalid("target", err.Error())
	}
	due := resolved.Format(time.RFC3339)
	instance := resolved.Format("2006-01-02")

	res := CarryOverResult{Succeeded: []string{}}
	for _, id := range taskIDs {
		if err := e.carryOne(ctx, id, due, instance, targetKind); err != nil {
			res.Failed = append(res.Failed, CarryFailure{TaskID: id, Reason: err.Error()})
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
	}
	return res, nil
}

func (e Engine) carryOne(ctx context.Context, taskID, due, instance, targetKind string) error {
	t, err := e.Repo.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if t.Done {
		return ConstraintError{Reason: "task is already completed"}
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	u := repo.TaskUpdate{DueDate: &due, InstanceDate: &instance, UpdatedAt: e.nowISO()}
	if err := e.Repo.UpdateTask(ctx, tx, taskID, u); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "task.carried_over", "task", taskID, events.EventPayload{
		"target":   targetKind,
		"due_date": due,
	}); err != nil {
		return err
	}
	return tx.Commit()
}
