package server

import "dayline/internal/domain"

type CreateBoardRequest struct {
	Name  string `json:"name" example:"Sprint 12"`
	Space string `json:"space" example:"work"`
}

type CreateColumnRequest struct {
	Name     string `json:"name" example:"In Progress"`
	WIPLimit *int   `json:"wip_limit,omitempty" example:"3"`
}

type UpdateColumnRequest struct {
	Name          *string `json:"name,omitempty"`
	WIPLimit      *int    `json:"wip_limit,omitempty"`
	ClearWIPLimit bool    `json:"clear_wip_limit,omitempty"`
}

type OrderRequest struct {
	IDs []string `json:"ids"`
}

type PositionRequest struct {
	Index int `json:"index"`
}

type CreateTaskRequest struct {
	ColumnID         string           `json:"column_id"`
	Title            string           `json:"title" example:"Water the plants"`
	Notes            string           `json:"notes,omitempty"`
	DueDate          string           `json:"due_date,omitempty" example:"2025-03-10T09:00:00Z"`
	Priority         string           `json:"priority,omitempty" enum:",low,medium,high,urgent"`
	Labels           []string         `json:"labels,omitempty"`
	Subtasks         []domain.Subtask `json:"subtasks,omitempty"`
	RecurringPattern string           `json:"recurring_pattern,omitempty" enum:",daily,weekly,biweekly,monthly,end_of_month,yearly"`
	RecurringEndDate string           `json:"recurring_end_date,omitempty"`
}

type UpdateTaskRequest struct {
	Title            *string          `json:"title,omitempty"`
	Notes            *string          `json:"notes,omitempty"`
	Priority         *string          `json:"priority,omitempty"`
	DueDate          *string          `json:"due_date,omitempty"`
	ClearDueDate     bool             `json:"clear_due_date,omitempty"`
	Done             *bool            `json:"done,omitempty"`
	Labels           []string         `json:"labels,omitempty"`
	Subtasks         []domain.Subtask `json:"subtasks,omitempty"`
	RecurringPattern *string          `json:"recurring_pattern,omitempty"`
	RecurringEndDate *string          `json:"recurring_end_date,omitempty"`
	ClearRecurrence  bool             `json:"clear_recurrence,omitempty"`
}

type MoveTaskRequest struct {
	ColumnID string `json:"column_id"`
	Index    *int   `json:"index,omitempty" doc:"Target index in the destination column; omitted or -1 appends"`
}

type CarryOverRequest struct {
	TaskIDs []string `json:"task_ids"`
	Target  string   `json:"target" enum:"end_of_today,tomorrow,next_week,end_of_month,custom"`
	Date    string   `json:"date,omitempty" doc:"Required when target is custom; YYYY-MM-DD or RFC3339"`
}

type CreateHabitRequest struct {
	Name         string `json:"name" example:"Morning run"`
	Space        string `json:"space" example:"personal"`
	Frequency    string `json:"frequency,omitempty" enum:",daily,weekly,custom"`
	TargetDays   []int  `json:"target_days,omitempty" doc:"Weekdays 0 (Sunday) through 6 (Saturday)"`
	ReminderTime string `json:"reminder_time,omitempty" example:"08:30"`
}
