package task

import "time"

// Status is the lifecycle state of a task. Done is terminal: nothing in the
// application ever moves a task away from it.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// DefaultStatus is applied when a create request omits or mangles the status.
const DefaultStatus = StatusTodo

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow  Priority = "low"
	PriorityMid  Priority = "mid"
	PriorityHigh Priority = "high"
)

const DefaultPriority = PriorityMid

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMid, PriorityHigh:
		return true
	}
	return false
}

type Type string

const (
	TypePersonal Type = "personal"
	TypeProject  Type = "project"
)

const DefaultType = TypePersonal

func (t Type) Valid() bool {
	switch t {
	case TypePersonal, TypeProject:
		return true
	}
	return false
}

// Task is the central entity. ID is a ULID generated once at creation and is
// the only identifier ever exposed outside the storage layer.
type Task struct {
	ID          string     `yaml:"id"`
	Type        Type       `yaml:"task_type"`
	ProjectID   string     `yaml:"project_id,omitempty"`
	Title       string     `yaml:"title"`
	Description string     `yaml:"description"`
	CreatedBy   string     `yaml:"created_by"`
	AssigneeID  string     `yaml:"assignee_id,omitempty"`
	Status      Status     `yaml:"status"`
	Priority    Priority   `yaml:"priority"`
	DueDate     *time.Time `yaml:"due_date,omitempty"`
	CompletedAt *time.Time `yaml:"completed_at,omitempty"`
	CreatedAt   time.Time  `yaml:"created_at"`
	UpdatedAt   time.Time  `yaml:"updated_at"`
}

// MarkComplete transitions the task to done, setting CompletedAt exactly
// once. Returns false when the task was already done; callers treat that as
// an idempotent no-op and must not touch UpdatedAt or CompletedAt.
func (t *Task) MarkComplete(now time.Time) bool {
	if t.Status == StatusDone {
		return false
	}
	t.Status = StatusDone
	completed := now
	t.CompletedAt = &completed
	t.UpdatedAt = now
	return true
}

// DueDateLayout is the wire format for calendar dates.
const DueDateLayout = "2006-01-02"

// ParseDueDate parses an ISO-8601 calendar date into a midnight timestamp.
func ParseDueDate(raw string) (*time.Time, error) {
	d, err := time.ParseInLocation(DueDateLayout, raw, time.Local)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
