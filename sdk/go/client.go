package daylinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Dayline HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Board represents the API board model.
type Board struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Space       string   `json:"space"`
	ColumnOrder []string `json:"column_order"`
}

// Column represents the API column model.
type Column struct {
	ID        string   `json:"id"`
	BoardID   string   `json:"board_id"`
	Name      string   `json:"name"`
	TaskOrder []string `json:"task_order"`
	WIPLimit  *int     `json:"wip_limit,omitempty"`
}

// Task represents the API task model (partial).
type Task struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	ColumnID         string  `json:"column_id"`
	Space            string  `json:"space"`
	DueDate          *string `json:"due_date,omitempty"`
	Priority         string  `json:"priority"`
	Done             bool    `json:"done"`
	RecurringPattern string  `json:"recurring_pattern,omitempty"`
	ParentTaskID     *string `json:"parent_task_id,omitempty"`
	InstanceDate     *string `json:"instance_date,omitempty"`
}

// Habit represents the API habit model.
type Habit struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Space          string `json:"space"`
	Frequency      string `json:"frequency"`
	CompletedToday bool   `json:"completed_today"`
	CurrentStreak  int    `json:"current_streak"`
}

// MoveResult is the outcome of a move, including the advisory WIP flag.
type MoveResult struct {
	Task        Task `json:"task"`
	WIPExceeded bool `json:"wip_exceeded"`
}

// CompleteResult is a completion plus any materialized occurrence.
type CompleteResult struct {
	Task           Task  `json:"task"`
	NextOccurrence *Task `json:"next_occurrence,omitempty"`
}

// CarryOverResult is the per-task outcome of a batch carry-over.
type CarryOverResult struct {
	Succeeded []string `json:"succeeded"`
	Failed    []struct {
		TaskID string `json:"task_id"`
		Reason string `json:"reason"`
	} `json:"failed,omitempty"`
}

// Event represents a log entry.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id"`
	Payload    string `json:"payload_json"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateBoard creates a board in a space.
func (c *Client) CreateBoard(ctx context.Context, name, space string) (Board, error) {
	var resp Board
	err := c.do(ctx, http.MethodPost, "v0/boards", map[string]any{"name": name, "space": space}, &resp)
	return resp, err
}

// ListBoards lists boards, optionally filtered by space.
func (c *Client) ListBoards(ctx context.Context, space string) ([]Board, error) {
	endpoint := "v0/boards"
	if space != "" {
		endpoint += "?space=" + url.QueryEscape(space)
	}
	var resp []Board
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// CreateColumn creates a column on a board.
func (c *Client) CreateColumn(ctx context.Context, boardID, name string, wipLimit *int) (Column, error) {
	body := map[string]any{"name": name}
	if wipLimit != nil {
		body["wip_limit"] = *wipLimit
	}
	var resp Column
	endpoint := fmt.Sprintf("v0/boards/%s/columns", url.PathEscape(boardID))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// CreateTask creates a task in a column.
func (c *Client) CreateTask(ctx context.Context, columnID, title string) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPost, "v0/tasks", map[string]any{"column_id": columnID, "title": title}, &resp)
	return resp, err
}

// MoveTask moves a task to a column at index (-1 appends).
func (c *Client) MoveTask(ctx context.Context, taskID, columnID string, index int) (MoveResult, error) {
	var resp MoveResult
	endpoint := fmt.Sprintf("v0/tasks/%s/move", url.PathEscape(taskID))
	err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"column_id": columnID, "index": index}, &resp)
	return resp, err
}

// CompleteTask completes a task, advancing its recurrence if any.
func (c *Client) CompleteTask(ctx context.Context, taskID string) (CompleteResult, error) {
	var resp CompleteResult
	endpoint := fmt.Sprintf("v0/tasks/%s/complete", url.PathEscape(taskID))
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// CarryOver reschedules tasks to a symbolic target.
func (c *Client) CarryOver(ctx context.Context, taskIDs []string, target, date string) (CarryOverResult, error) {
	body := map[string]any{"task_ids": taskIDs, "target": target}
	if date != "" {
		body["date"] = date
	}
	var resp CarryOverResult
	err := c.do(ctx, http.MethodPost, "v0/tasks/carry-over", body, &resp)
	return resp, err
}

// CheckHabit checks a habit for today.
func (c *Client) CheckHabit(ctx context.Context, habitID string) (Habit, error) {
	var resp Habit
	endpoint := fmt.Sprintf("v0/habits/%s/check", url.PathEscape(habitID))
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// Events returns recent events.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	endpoint := "v0/events"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp []Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
