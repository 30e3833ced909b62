package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"dayline/internal/domain"
	"dayline/internal/events"
	"dayline/internal/order"
	"dayline/internal/repo"
)

// ColumnView is a column with its read-time repaired order and the
// advisory WIP flag. WIP overflow is surfaced, never enforced.
type ColumnView struct {
	domain.Column
	Tasks       []domain.Task `json:"tasks"`
	WIPExceeded bool          `json:"wip_exceeded"`
}

// BoardView is a board with its columns in display order.
type BoardView struct {
	domain.Board
	Columns []ColumnView `json:"columns"`
}

func (e Engine) CreateBoard(ctx context.Context, name, space string) (domain.Board, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Board{}, invalid("name", "is required")
	}
	if e.Config != nil && !e.Config.HasSpace(space) {
		return domain.Board{}, invalid("space", fmt.Sprintf("unknown space %q", space))
	}
	now := e.nowISO()
	b := domain.Board{
		ID:          uuid.NewString(),
		Name:        name,
		Space:       space,
		ColumnOrder: []string{},
		CreatedAt:   now,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Board{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertBoard(ctx, tx, b); err != nil {
		return domain.Board{}, err
	}
	if err := e.Events.Append(ctx, tx, "board.created", "board", b.ID, events.EventPayload{"name": b.Name, "space": b.Space}); err != nil {
		return domain.Board{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Board{}, err
	}
	return b, nil
}

// Board returns the board with its columns and tasks in display order.
// Stored order arrays are reconciled against the actual sets at read time:
// missing ids are appended in discovery order, stale ids dropped. The
// repair is pure — nothing is written back.
func (e Engine) Board(ctx context.Context, boardID string) (BoardView, error) {
	b, err := e.Repo.GetBoard(ctx, boardID)
	if err != nil {
		return BoardView{}, err
	}
	cols, err := e.Repo.ListColumnsByBoard(ctx, boardID)
	if err != nil {
		return BoardView{}, err
	}
	colIDs := make([]string, len(cols))
	byID := make(map[string]domain.Column, len(cols))
	for i, c := range cols {
		colIDs[i] = c.ID
		byID[c.ID] = c
	}
	b.ColumnOrder = order.Reconcile(b.ColumnOrder, colIDs)

	view := BoardView{Board: b, Columns: make([]ColumnView, 0, len(cols))}
	for _, colID := range b.ColumnOrder {
		cv, err := e.columnView(ctx, byID[colID])
		if err != nil {
			return BoardView{}, err
		}
		view.Columns = append(view.Columns, cv)
	}
	return view, nil
}

func (e Engine) ListBoards(ctx context.Context, space string) ([]domain.Board, error) {
	if space != "" && e.Config != nil && !e.Config.HasSpace(space) {
		return nil, invalid("space", fmt.Sprintf("unknown space %q", space))
	}
	return e.Repo.ListBoards(ctx, space)
}

func (e Engine) DeleteBoard(ctx context.Context, boardID string) error {
	cols, err := e.Repo.ListColumnsByBoard(ctx, boardID)
	if err != nil {
		return err
	}
	for _, c := range cols {
		n, err := e.Repo.CountTasksInColumn(ctx, c.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return ConstraintError{Reason: fmt.Sprintf("board has %d tasks in column %q; move or delete them first", n, c.Name)}
		}
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteBoard(ctx, tx, boardID); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "board.deleted", "board", boardID, nil); err != nil {
		return err
	}
	return tx.Commit()
}

func (e Engine) CreateColumn(ctx context.Context, boardID, name string, wipLimit *int) (domain.Column, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Column{}, invalid("name", "is required")
	}
	if wipLimit != nil && *wipLimit < 1 {
		return domain.Column{}, invalid("wip_limit", "must be positive")
	}
	b, err := e.Repo.GetBoard(ctx, boardID)
	if err != nil {
		return domain.Column{}, err
	}
	cols, err := e.Repo.ListColumnsByBoard(ctx, boardID)
	if err != nil {
		return domain.Column{}, err
	}
	colIDs := make([]string, len(cols))
	for i, col := range cols {
		colIDs[i] = col.ID
	}
	c := domain.Column{
		ID:        uuid.NewString(),
		BoardID:   boardID,
		Name:      name,
		TaskOrder: []string{},
		WIPLimit:  wipLimit,
		CreatedAt: e.nowISO(),
	}
	newOrder := append(order.Reconcile(b.ColumnOrder, colIDs), c.ID)

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Column{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertColumn(ctx, tx, c); err != nil {
		return domain.Column{}, err
	}
	if err := e.Repo.UpdateColumnOrder(ctx, tx, boardID, newOrder); err != nil {
		return domain.Column{}, err
	}
	if err := e.Events.Append(ctx, tx, "column.created", "column", c.ID, events.EventPayload{"board_id": boardID, "name": name}); err != nil {
		return domain.Column{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Column{}, err
	}
	return c, nil
}

func (e Engine) UpdateColumn(ctx context.Context, columnID string, name *string, wipLimit *int, clearWIP bool) (domain.Column, error) {
	if name != nil && strings.TrimSpace(*name) == "" {
		return domain.Column{}, invalid("name", "cannot be empty")
	}
	if wipLimit != nil && *wipLimit < 1 {
		return domain.Column{}, invalid("wip_limit", "must be positive")
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Column{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateColumn(ctx, tx, columnID, name, wipLimit, clearWIP); err != nil {
		return domain.Column{}, err
	}
	if err := e.Events.Append(ctx, tx, "column.updated", "column", columnID, nil); err != nil {
		return domain.Column{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Column{}, err
	}
	return e.Repo.GetColumn(ctx, e.DB, columnID)
}

// DeleteColumn removes an empty column. A column that still contains tasks
// is rejected with no state change.
func (e Engine) DeleteColumn(ctx context.Context, columnID string) error {
	c, err := e.Repo.GetColumn(ctx, e.DB, columnID)
	if err != nil {
		return err
	}
	n, err := e.Repo.CountTasksInColumn(ctx, columnID)
	if err != nil {
		return err
	}
	if n > 0 {
		return ConstraintError{Reason: fmt.Sprintf("column %q still contains %d tasks", c.Name, n)}
	}
	b, err := e.Repo.GetBoard(ctx, c.BoardID)
	if err != nil {
		return err
	}
	newOrder := make([]string, 0, len(b.ColumnOrder))
	for _, id := range b.ColumnOrder {
		if id != columnID {
			newOrder = append(newOrder, id)
		}
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteColumn(ctx, tx, columnID); err != nil {
		return err
	}
	if err := e.Repo.UpdateColumnOrder(ctx, tx, c.BoardID, newOrder); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "column.deleted", "column", columnID, events.EventPayload{"board_id": c.BoardID}); err != nil {
		return err
	}
	return tx.Commit()
}

// ReorderColumns splices one column to a target index within its board.
// Reordering onto the current index is a no-op: no write, no event.
func (e Engine) ReorderColumns(ctx context.Context, boardID, columnID string, targetIndex int) (domain.Board, error) {
	b, err := e.Repo.GetBoard(ctx, boardID)
	if err != nil {
		return domain.Board{}, err
	}
	cols, err := e.Repo.ListColumnsByBoard(ctx, boardID)
	if err != nil {
		return domain.Board{}, err
	}
	colIDs := make([]string, len(cols))
	for i, c := range cols {
		colIDs[i] = c.ID
	}
	current := order.Reconcile(b.ColumnOrder, colIDs)
	if !order.Contains(current, columnID) {
		return domain.Board{}, fmt.Errorf("column %s: %w", columnID, repo.ErrNotFound)
	}
	next, changed := order.Reorder(current, columnID, targetIndex)
	if !changed {
		b.ColumnOrder = current
		return b, nil
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Board{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateColumnOrder(ctx, tx, boardID, next); err != nil {
		return domain.Board{}, err
	}
	if err := e.Events.Append(ctx, tx, "columns.reordered", "board", boardID, events.EventPayload{"column_order": next}); err != nil {
		return domain.Board{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Board{}, err
	}
	b.ColumnOrder = next
	return b, nil
}

// SetColumnOrder replaces a board's column order wholesale, reconciled
// against the columns that actually exist.
func (e Engine) SetColumnOrder(ctx context.Context, boardID string, columnIDs []string) (domain.Board, error) {
	b, err := e.Repo.GetBoard(ctx, boardID)
	if err != nil {
		return domain.Board{}, err
	}
	cols, err := e.Repo.ListColumnsByBoard(ctx, boardID)
	if err != nil {
		return domain.Board{}, err
	}
	existing := make([]string, len(cols))
	for i, c := range cols {
		existing[i] = c.ID
	}
	next := order.Reconcile(columnIDs, existing)
	if order.Equal(next, order.Reconcile(b.ColumnOrder, existing)) {
		b.ColumnOrder = next
		return b, nil
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Board{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateColumnOrder(ctx, tx, boardID, next); err != nil {
		return domain.Board{}, err
	}
	if err := e.Events.Append(ctx, tx, "columns.reordered", "board", boardID, events.EventPayload{"column_order": next}); err != nil {
		return domain.Board{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Board{}, err
	}
	b.ColumnOrder = next
	return b, nil
}

func (e Engine) columnView(ctx context.Context, c domain.Column) (ColumnView, error) {
	tasks, err := e.Repo.ListTasksByColumn(ctx, e.DB, c.ID)
	if err != nil {
		return ColumnView{}, err
	}
	ids := make([]string, len(tasks))
	byID := make(map[string]domain.Task, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
		byID[t.ID] = t
	}
	c.TaskOrder = order.Reconcile(c.TaskOrder, ids)
	ordered := make([]domain.Task, 0, len(tasks))
	for _, id := range c.TaskOrder {
		ordered = append(ordered, byID[id])
	}
	return ColumnView{
		Column:      c,
		Tasks:       ordered,
		WIPExceeded: c.WIPLimit != nil && len(c.TaskOrder) > *c.WIPLimit,
	}, nil
}

// Column returns a single column with reconciled task order.
func (e Engine) Column(ctx context.Context, columnID string) (ColumnView, error) {
	c, err := e.Repo.GetColumn(ctx, e.DB, columnID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ColumnView{}, fmt.Errorf("column %s: %w", columnID, repo.ErrNotFound)
		}
		return ColumnView{}, err
	}
	return e.columnView(ctx, c)
}
