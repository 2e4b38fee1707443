package project

import "time"

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusNotActive  Status = "not_active"
)

const DefaultStatus = StatusInProgress

func (s Status) Valid() bool {
	switch s {
	case StatusInProgress, StatusCompleted, StatusNotActive:
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

type Project struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	OwnerID     string     `yaml:"owner_id"`
	DueDate     *time.Time `yaml:"due_date,omitempty"`
	Status      Status     `yaml:"status"`
	Priority    Priority   `yaml:"priority"`
	CreatedAt   time.Time  `yaml:"created_at"`
	UpdatedAt   time.Time  `yaml:"updated_at"`
}

// Ref is the shape embedded in task responses.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (p *Project) Ref() Ref {
	return Ref{ID: p.ID, Name: p.Name}
}

type Role string

const (
	RolePM     Role = "PM"
	RoleMember Role = "MEMBER"
)

// Membership links a user to a project. At most one membership exists per
// (user, project) pair; deactivation flips IsActive instead of deleting.
type Membership struct {
	ID        string    `yaml:"id"`
	UserID    string    `yaml:"user_id"`
	ProjectID string    `yaml:"project_id"`
	Role      Role      `yaml:"role"`
	JoinedAt  time.Time `yaml:"joined_at"`
	IsActive  bool      `yaml:"is_active"`
}
