package domain

// Board partitions columns inside a space. ColumnOrder is the source of
// truth for display order, never insertion order.
type Board struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Space       string   `json:"space"`
	ColumnOrder []string `json:"column_order"`
	CreatedAt   string   `json:"created_at" format:"date-time"`
}

type Column struct {
	ID        string   `json:"id"`
	BoardID   string   `json:"board_id"`
	Name      string   `json:"name"`
	TaskOrder []string `json:"task_order"`
	WIPLimit  *int     `json:"wip_limit,omitempty"`
	CreatedAt string   `json:"created_at" format:"date-time"`
}

type Subtask struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type Task struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	ColumnID         string    `json:"column_id"`
	Space            string    `json:"space"`
	Notes            string    `json:"notes,omitempty"`
	DueDate          *string   `json:"due_date,omitempty" format:"date-time"`
	Priority         string    `json:"priority" enum:"low,medium,high,urgent"`
	Done             bool      `json:"done"`
	Labels           []string  `json:"labels,omitempty"`
	Subtasks         []Subtask `json:"subtasks,omitempty"`
	RecurringPattern string    `json:"recurring_pattern,omitempty" enum:"daily,weekly,biweekly,monthly,end_of_month,yearly"`
	RecurringEndDate *string   `json:"recurring_end_date,omitempty" format:"date-time"`
	// ParentTaskID links a generated occurrence back to its series. It is a
	// lineage reference, never an ownership edge: deleting either side leaves
	// the other untouched.
	ParentTaskID *string `json:"parent_task_id,omitempty"`
	InstanceDate *string `json:"instance_date,omitempty"`
	CreatedAt    string  `json:"created_at" format:"date-time"`
	UpdatedAt    string  `json:"updated_at" format:"date-time"`
	CompletedAt  *string `json:"completed_at,omitempty" format:"date-time"`
}

type Habit struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Space          string  `json:"space"`
	Frequency      string  `json:"frequency" enum:"daily,weekly,custom"`
	TargetDays     []int   `json:"target_days,omitempty"`
	CompletedToday bool    `json:"completed_today"`
	CurrentStreak  int     `json:"current_streak"`
	ReminderTime   *string `json:"reminder_time,omitempty"`
	LastChecked    *string `json:"last_checked,omitempty"`
	// CheckDate is set by the agenda aggregator once the habit instance has
	// been resolved to a concrete date inside a week window.
	CheckDate *string `json:"check_date,omitempty"`
	CreatedAt string  `json:"created_at" format:"date-time"`
}

// CalendarEvent is the read-only projection the agenda aggregator emits for
// tasks, habits and external events alike. ID+InstanceDate is the
// de-duplication key for rendering; it is derived on every read and never
// persisted.
type CalendarEvent struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	DueDate      *string `json:"due_date,omitempty" format:"date-time"`
	Priority     string  `json:"priority,omitempty"`
	Type         string  `json:"type" enum:"task,habit,external"`
	Completed    bool    `json:"completed"`
	BoardID      string  `json:"board_id,omitempty"`
	ColumnID     string  `json:"column_id,omitempty"`
	InstanceDate *string `json:"instance_date,omitempty"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	Payload    string `json:"payload_json"`
}
