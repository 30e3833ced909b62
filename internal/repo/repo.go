package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"dayline/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

// Querier is the read surface shared by *sql.DB and *sql.Tx. Reads that must
// observe an open transaction take it explicitly; going back to the pool
// while a write transaction is open would block on the table lock the
// transaction holds.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var ErrNotFound = errors.New("not found")

// Boards

func (r Repo) InsertBoard(ctx context.Context, tx *sql.Tx, b domain.Board) error {
	orderJSON, err := encodeStringSlice(b.ColumnOrder)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO boards(id,name,space,column_order_json,created_at) VALUES (?,?,?,?,?)`,
		b.ID, b.Name, b.Space, orderJSON, b.CreatedAt)
	return err
}

func (r Repo) GetBoard(ctx context.Context, id string) (domain.Board, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT id,name,space,column_order_json,created_at FROM boards WHERE id=?`, id)
	return scanBoard(row)
}

func (r Repo) ListBoards(ctx context.Context, space string) ([]domain.Board, error) {
	q := `SELECT id,name,space,column_order_json,created_at FROM boards`
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
	var res []domain.Board
	for rows.Next() {
		var b domain.Board
		var orderJSON string
		if err := rows.Scan(&b.ID, &b.Name, &b.Space, &orderJSON, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.ColumnOrder = decodeStringSlice(orderJSON)
		res = append(res, b)
	}
	return res, rows.Err()
}

func (r Repo) UpdateColumnOrder(ctx context.Context, tx *sql.Tx, boardID string, columnIDs []string) error {
	orderJSON, err := encodeStringSlice(columnIDs)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE boards SET column_order_json=? WHERE id=?`, orderJSON, boardID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteBoard(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM boards WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanBoard(row *sql.Row) (domain.Board, error) {
	var b domain.Board
	var orderJSON string
	err := row.Scan(&b.ID, &b.Name, &b.Space, &orderJSON, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return b, ErrNotFound
	}
	if err != nil {
		return b, err
	}
	b.ColumnOrder = decodeStringSlice(orderJSON)
	return b, nil
}

// Columns

func (r Repo) InsertColumn(ctx context.Context, tx *sql.Tx, c domain.Column) error {
	orderJSON, err := encodeStringSlice(c.TaskOrder)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO columns(id,board_id,name,task_order_json,wip_limit,created_at) VALUES (?,?,?,?,?,?)`,
		c.ID, c.BoardID, c.Name, orderJSON, nullableIntPtr(c.WIPLimit), c.CreatedAt)
	return err
}

func (r Repo) GetColumn(ctx context.Context, q Querier, id string) (domain.Column, error) {
	row := q.QueryRowContext(ctx, `SELECT id,board_id,name,task_order_json,wip_limit,created_at FROM columns WHERE id=?`, id)
	return scanColumn(row)
}

func (r Repo) ListColumnsByBoard(ctx context.Context, boardID string) ([]domain.Column, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,board_id,name,task_order_json,wip_limit,created_at FROM columns WHERE board_id=? ORDER BY created_at, id`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Column
	for rows.Next() {
		var c domain.Column
		var orderJSON string
		var wip sql.NullInt64
		if err := rows.Scan(&c.ID, &c.BoardID, &c.Name, &orderJSON, &wip, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.TaskOrder = decodeStringSlice(orderJSON)
		if wip.Valid {
			v := int(wip.Int64)
			c.WIPLimit = &v
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r Repo) UpdateColumn(ctx context.Context, tx *sql.Tx, id string, name *string, wipLimit *int, clearWIP bool) error {
	var (
		fields []string
		args   []any
	)
	if name != nil {
		fields = append(fields, "name=?")
		args = append(args, *name)
	}
	if clearWIP {
		fields = append(fields, "wip_limit=NULL")
	} else if wipLimit != nil {
		fields = append(fields, "wip_limit=?")
		args = append(args, *wipLimit)
	}
	if len(fields) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := tx.ExecContext(ctx, fmt.Sprintf(`UPDATE columns SET %s WHERE id=?`, strings.Join(fields, ",")), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) UpdateTaskOrder(ctx context.Context, tx *sql.Tx, columnID string, taskIDs []string) error {
	orderJSON, err := encodeStringSlice(taskIDs)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE columns SET task_order_json=? WHERE id=?`, orderJSON, columnID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteColumn(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM columns WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) CountTasksInColumn(ctx context.Context, columnID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM tasks WHERE column_id=?`, columnID).Scan(&n)
	return n, err
}

func scanColumn(row *sql.Row) (domain.Column, error) {
	var c domain.Column
	var orderJSON string
	var wip sql.NullInt64
	err := row.Scan(&c.ID, &c.BoardID, &c.Name, &orderJSON, &wip, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	if err != nil {
		return c, err
	}
	c.TaskOrder = decodeStringSlice(orderJSON)
	if wip.Valid {
		v := int(wip.Int64)
		c.WIPLimit = &v
	}
	return c, nil
}

// Events

func (r Repo) ListEvents(ctx context.Context, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT id,ts,type,entity_kind,COALESCE(entity_id,''),payload_json FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.EntityKind, &e.EntityID, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// JSON column helpers

func encodeStringSlice(in []string) (string, error) {
	if in == nil {
		in = []string{}
	}
	b, err := json.Marshal(in)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeStringSlice(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return []string{}
	}
	return out
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil || *v == "" {
		return nil
	}
	return *v
}

func nullableIntPtr(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
