package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"dayline/internal/config"
	"dayline/internal/db"
	"dayline/internal/domain"
	"dayline/internal/migrate"
	"dayline/internal/repo"
)

type testEnv struct {
	eng Engine
	now time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	env := &testEnv{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	env.eng = New(conn, config.Default())
	env.eng.Now = func() time.Time { return env.now }
	return env
}

func (env *testEnv) seedBoard(t *testing.T) (domain.Board, domain.Column, domain.Column) {
	t.Helper()
	ctx := context.Background()
	b, err := env.eng.CreateBoard(ctx, "Sprint", "work")
	if err != nil {
		t.Fatalf("create board: %v", err)
	}
	todo, err := env.eng.CreateColumn(ctx, b.ID, "Todo", nil)
	if err != nil {
		t.Fatalf("create column: %v", err)
	}
	doing, err := env.eng.CreateColumn(ctx, b.ID, "Doing", nil)
	if err != nil {
		t.Fatalf("create column: %v", err)
	}
	return b, todo, doing
}

func (env *testEnv) seedTask(t *testing.T, columnID, title string) domain.Task {
	t.Helper()
	task, err := env.eng.CreateTask(context.Background(), TaskCreateOptions{ColumnID: columnID, Title: title})
	if err != nil {
		t.Fatalf("create task %q: %v", title, err)
	}
	return task
}

func orderOf(t *testing.T, env *testEnv, columnID string) []string {
	t.Helper()
	cv, err := env.eng.Column(context.Background(), columnID)
	if err != nil {
		t.Fatalf("column %s: %v", columnID, err)
	}
	return cv.TaskOrder
}

func assertOrder(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestMoveTaskAcrossColumns(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, todo, doing := env.seedBoard(t)
	t1 := env.seedTask(t, todo.ID, "one")
	t2 := env.seedTask(t, todo.ID, "two")
	t3 := env.seedTask(t, todo.ID, "three")

	res, err := env.eng.MoveTask(ctx, t2.ID, doing.ID, 0)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if res.Task.ColumnID != doing.ID {
		t.Fatalf("task column = %s, want %s", res.Task.ColumnID, doing.ID)
	}
	assertOrder(t, orderOf(t, env, todo.ID), []string{t1.ID, t3.ID})
	assertOrder(t, orderOf(t, env, doing.ID), []string{t2.ID})
}

func TestMoveTaskAppendWhenIndexNegative(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, todo, doing := env.seedBoard(t)
	t1 := env.seedTask(t, todo.ID, "one")
	t2 := env.seedTask(t, doing.ID, "already there")

	if _, err := env.eng.MoveTask(ctx, t1.ID, doing.ID, -1); err != nil {
		t.Fatalf("move: %v", err)
	}
	assertOrder(t, orderOf(t, env, doing.ID), []string{t2.ID, t1.ID})
}

func TestMoveTaskWithinColumnNegativeAppends(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, todo, _ := env.seedBoard(t)
	t1 := env.seedTask(t, todo.ID, "one")
	t2 := env.seedTask(t, todo.ID, "two")
	t3 := env.seedTask(t, todo.ID, "three")

	if _, err := env.eng.MoveTask(ctx, t1.ID, todo.ID, -1); err != nil {
		t.Fatalf("move: %v", err)
	}
	assertOrder(t, orderOf(t, env, todo.ID), []string{t2.ID, t3.ID, t1.ID})
}

func TestReorderInverseRestoresOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, todo, _ := env.seedBoard(t)
	t1 := env.seedTask(t, todo.ID, "one")
	t2 := env.seedTask(t, todo.ID, "two")
	t3 := env.seedTask(t, todo.ID, "three")

	if _, err := env.eng.ReorderTask(ctx, todo.ID, t1.ID, 2); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	assertOrder(t, orderOf(t, env, todo.ID), []string{t2.ID, t3.ID, t1.ID})

	if _, err := env.eng.ReorderTask(ctx, todo.ID, t1.ID, 0); err != nil {
		t.Fatalf("reorder back: %v", err)
	}
	assertOrder(t, orderOf(t, env, todo.ID), []string{t1.ID, t2.ID, t3.ID})
}

func TestReorderNoOpEmitsNoEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, todo, _ := env.seedBoard(t)
	t1 := env.seedTask(t, todo.ID, "one")
	env.seedTask(t, todo.ID, "two")

	before, err := env.eng.RecentEvents(ctx, 100)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if _, err := env.eng.ReorderTask(ctx, todo.ID, t1.ID, 0); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	after, err := env.eng.RecentEvents(ctx, 100)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("no-op reorder appended an event: %d -> %d", len(before), len(after))
	}
}

func TestCompleteRecurringCreatesNextOccurrence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, todo, _ := env.seedBoard(t)
	task, err := env.eng.CreateTask(ctx, TaskCreateOptions{
		ColumnID:         todo.ID,
		Title:            "water plants",
		DueDate:          "2025-03-10T09:00:00Z",
		RecurringPattern: "weekly",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := env.eng.CompleteTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !res.Task.Done || res.Task.CompletedAt == nil {
		t.Fatalf("task not marked done: %+v", res.Task)
	}
	if res.NextOccurrence == nil {
		t.Fatal("no next occurrence materialized")
	}
	occ := *res.NextOccurrence
	if occ.DueDate == nil || *occ.DueDate != "2025-03-17T09:00:00Z" {
		t.Fatalf("next due = %v, want 2025-03-17T09:00:00Z", occ.DueDate)
	}
	if occ.ParentTaskID == nil || *occ.ParentTaskID != task.ID {
		t.Fatalf("occurrence parent = %v, want %s", occ.ParentTaskID, task.ID)
	}

	// completing an already-done task is a no-op and must not spawn again
	again, err := env.eng.CompleteTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("re-complete: %v", err)
	}
	if again.NextOccurrence != nil {
		t.Fatal("re-completion spawned a second occurrence")
	}
}

func TestCompleteOccurrenceAdvancesChain(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, todo, _ := env.seedBoard(t)
	task, err := env.eng.CreateTask(ctx, TaskCreateOptions{
		ColumnID:         todo.ID,
		Title:            "water plants",
		DueDate:          "2025-03-10T09:00:00Z",
		RecurringPattern: "weekly",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	first, err := env.eng.CompleteTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("complete root: %v", err)
	}
	if first.NextOccurrence == nil {
		t.Fatal("no occurrence after completing the root")
	}

	// completing the generated occurrence must keep the series moving
	env.now = time.Date(2025, 3, 17, 10, 0, 0, 0, time.UTC)
	second, err := env.eng.CompleteTask(ctx, first.NextOccurrence.ID)
	if err != nil {
		t.Fatalf("complete occurrence: %v", err)
	}
	if second.NextOccurrence == nil {
		t.Fatal("series stalled after completing the first occurrence")
	}
	occ := *second.NextOccurrence
	if occ.DueDate == nil || *occ.DueDate != "2025-03-24T09:00:00Z" {
		t.Fatalf("third due = %v, want 2025-03-24T09:00:00Z", occ.DueDate)
	}
	if occ.ParentTaskID == nil || *occ.ParentTaskID != task.ID {
		t.Fatalf("third parent = %v, want series root %s", occ.ParentTaskID, task.ID)
	}
}

func TestCompleteRecurringStopsAtEndDate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, todo, _ := env.seedBoard(t)
	task, err := env.eng.CreateTask(ctx, TaskCreateOptions{
		ColumnID:         todo.ID,
		Title:            "standup notes",
		DueDate:          "2025-03-10T09:00:00Z",
		RecurringPattern: "weekly",
		RecurringEndDate: "2025-03-14T00:00:00Z",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	res, err := env.eng.CompleteTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if res.NextOccurrence != nil {
		t.Fatalf("series ended but occurrence materialized for %v", *res.NextOccurrence.DueDate)
	}
}

func TestSweepOverdueIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, todo, _ := env.seedBoard(t)
	if _, err := env.eng.CreateTask(ctx, TaskCreateOptions{
		ColumnID:         todo.ID,
		Title:            "weekly review",
		DueDate:          "2025-03-03T18:00:00Z",
		RecurringPattern: "weekly",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	created, err := env.eng.SweepOverdue(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if created != 1 {
		t.Fatalf("first sweep created %d occurrences, want 1", created)
	}
	created, err = env.eng.SweepOverdue(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if created != 0 {
		t.Fatalf("second sweep created %d occurrences, want 0", created)
	}
}

func TestCarryOverBatchPartialSuccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, todo, _ := env.seedBoard(t)
	t1 := env.seedTask(t, todo.ID, "one")
	t2 := env.seedTask(t, todo.ID, "two")

	res, err := env.eng.CarryOver(ctx, []string{t1.ID, t2.ID, "missing"}, "tomorrow", "")
	if err != nil {
		t.Fatalf("carry over: %v", err)
	}
	if len(res.Succeeded) != 2 || len(res.Failed) != 1 {
		t.Fatalf("succeeded=%v failed=%v, want 2/1", res.Succeeded, res.Failed)
	}
	if res.Failed[0].TaskID != "missing" {
		t.Fatalf("failed id = %s, want missing", res.Failed[0].TaskID)
	}
	moved, err := env.eng.Task(ctx, t1.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if moved.DueDate == nil || *moved.DueDate != "2025-03-11T00:00:00Z" {
		t.Fatalf("due = %v, want 2025-03-11T00:00:00Z", moved.DueDate)
	}
}

func TestCarryOverRejectsCompletedTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, todo, _ := env.seedBoard(t)
	t1 := env.seedTask(t, todo.ID, "one")
	if _, err := env.eng.CompleteTask(ctx, t1.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	res, err := env.eng.CarryOver(ctx, []string{t1.ID}, "end_of_today", "")
	if err != nil {
		t.Fatalf("carry over: %v", err)
	}
	if len(res.Succeeded) != 0 || len(res.Failed) != 1 {
		t.Fatalf("succeeded=%v failed=%v, want 0/1", res.Succeeded, res.Failed)
	}
}

func TestCarryOverUnknownTargetRejected(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.eng.CarryOver(context.Background(), []string{"x"}, "someday", "")
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestDeleteColumnWithTasksRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, todo, _ := env.seedBoard(t)
	env.seedTask(t, todo.ID, "blocker")

	err := env.eng.DeleteColumn(ctx, todo.ID)
	var cerr ConstraintError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want ConstraintError", err)
	}
	if _, err := env.eng.Column(ctx, todo.ID); err != nil {
		t.Fatalf("column gone after rejected delete: %v", err)
	}
}

func TestWIPLimitIsAdvisory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b, todo, _ := env.seedBoard(t)
	limit := 1
	wip, err := env.eng.CreateColumn(ctx, b.ID, "Doing (1)", &limit)
	if err != nil {
		t.Fatalf("create column: %v", err)
	}
	env.seedTask(t, wip.ID, "first")
	t2 := env.seedTask(t, todo.ID, "second")

	res, err := env.eng.MoveTask(ctx, t2.ID, wip.ID, -1)
	if err != nil {
		t.Fatalf("move over limit should succeed: %v", err)
	}
	if !res.WIPExceeded {
		t.Fatal("WIPExceeded not flagged")
	}
}

func TestHabitStreak(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	h, err := env.eng.CreateHabit(ctx, HabitCreateOptions{Name: "run", Space: "personal"})
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}

	h, err = env.eng.CheckHabit(ctx, h.ID)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if h.CurrentStreak != 1 {
		t.Fatalf("streak = %d, want 1", h.CurrentStreak)
	}

	// same-day re-check is a no-op
	h, err = env.eng.CheckHabit(ctx, h.ID)
	if err != nil {
		t.Fatalf("re-check: %v", err)
	}
	if h.CurrentStreak != 1 {
		t.Fatalf("streak after same-day re-check = %d, want 1", h.CurrentStreak)
	}

	env.now = env.now.AddDate(0, 0, 1)
	h, err = env.eng.CheckHabit(ctx, h.ID)
	if err != nil {
		t.Fatalf("next-day check: %v", err)
	}
	if h.CurrentStreak != 2 {
		t.Fatalf("streak = %d, want 2", h.CurrentStreak)
	}

	// a missed day restarts the streak
	env.now = env.now.AddDate(0, 0, 2)
	h, err = env.eng.CheckHabit(ctx, h.ID)
	if err != nil {
		t.Fatalf("check after gap: %v", err)
	}
	if h.CurrentStreak != 1 {
		t.Fatalf("streak = %d, want 1", h.CurrentStreak)
	}
}

func TestUncheckHabitToday(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	h, err := env.eng.CreateHabit(ctx, HabitCreateOptions{Name: "read", Space: "personal"})
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	if _, err := env.eng.CheckHabit(ctx, h.ID); err != nil {
		t.Fatalf("check: %v", err)
	}
	h, err = env.eng.UncheckHabit(ctx, h.ID)
	if err != nil {
		t.Fatalf("uncheck: %v", err)
	}
	if h.CompletedToday {
		t.Fatal("still completed after uncheck")
	}
	if h.CurrentStreak != 0 {
		t.Fatalf("streak = %d, want 0", h.CurrentStreak)
	}
}

func TestAgendaDayMergesTasksAndHabits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b, err := env.eng.CreateBoard(ctx, "Home", "personal")
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	col, err := env.eng.CreateColumn(ctx, b.ID, "Inbox", nil)
	if err != nil {
		t.Fatalf("column: %v", err)
	}
	if _, err := env.eng.CreateTask(ctx, TaskCreateOptions{
		ColumnID: col.ID,
		Title:    "dentist",
		DueDate:  "2025-03-10T14:30:00Z",
	}); err != nil {
		t.Fatalf("task: %v", err)
	}
	if _, err := env.eng.CreateHabit(ctx, HabitCreateOptions{
		Name: "stretch", Space: "personal", ReminderTime: "08:30",
	}); err != nil {
		t.Fatalf("habit: %v", err)
	}

	view, err := env.eng.AgendaDay(ctx, "personal", "2025-03-10", nil)
	if err != nil {
		t.Fatalf("agenda: %v", err)
	}
	if len(view.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(view.Items))
	}
	if view.Items[0].Type != "habit" || view.Items[1].Type != "task" {
		t.Fatalf("order = %s,%s, want habit,task", view.Items[0].Type, view.Items[1].Type)
	}
	if len(view.Buckets.Afternoon) != 1 {
		t.Fatalf("afternoon = %d, want 1 (the 14:30 task)", len(view.Buckets.Afternoon))
	}
}

func TestCreateTaskValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, todo, _ := env.seedBoard(t)

	cases := []struct {
		name string
		opts TaskCreateOptions
	}{
		{"empty title", TaskCreateOptions{ColumnID: todo.ID, Title: "  "}},
		{"bad priority", TaskCreateOptions{ColumnID: todo.ID, Title: "x", Priority: "asap"}},
		{"bad pattern", TaskCreateOptions{ColumnID: todo.ID, Title: "x", RecurringPattern: "fortnightly"}},
		{"bad due date", TaskCreateOptions{ColumnID: todo.ID, Title: "x", DueDate: "next tuesday"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.eng.CreateTask(ctx, tc.opts)
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestDeleteTaskRemovesOrderSlot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, todo, _ := env.seedBoard(t)
	t1 := env.seedTask(t, todo.ID, "one")
	t2 := env.seedTask(t, todo.ID, "two")

	if err := env.eng.DeleteTask(ctx, t1.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	assertOrder(t, orderOf(t, env, todo.ID), []string{t2.ID})
	if _, err := env.eng.Task(ctx, t1.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestBoardReadRepairsStaleOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b, todo, _ := env.seedBoard(t)
	t1 := env.seedTask(t, todo.ID, "one")

	// corrupt the stored order with a stale id and a missing one
	tx, err := env.eng.DB.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
	if err := env.eng.Repo.UpdateTaskOrder(ctx, tx, todo.ID, []string{"ghost"}); err != nil {
		t.Fatalf("corrupt order: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	view, err := env.eng.Board(ctx, b.ID)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	for _, cv := range view.Columns {
		if cv.ID != todo.ID {
			continue
		}
		assertOrder(t, cv.TaskOrder, []string{t1.ID})
		return
	}
	t.Fatalf("column %s missing from board view", todo.ID)
}
