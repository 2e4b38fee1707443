package notification

import "time"

type Type string

const (
	TypeTaskAssigned       Type = "task_assigned"
	TypeTaskStatusChanged  Type = "task_status_changed"
	TypeProjectInvite      Type = "project_invite"
	TypeProjectRoleChanged Type = "project_role_changed"
)

// Notification is an in-app message for one user. Read is flipped once and
// never cleared.
type Notification struct {
	ID        string    `yaml:"id"`
	UserID    string    `yaml:"user_id"`
	Type      Type      `yaml:"type"`
	Title     string    `yaml:"title"`
	Body      string    `yaml:"body"`
	TaskID    string    `yaml:"task_id,omitempty"`
	ProjectID string    `yaml:"project_id,omitempty"`
	Read      bool      `yaml:"read"`
	CreatedAt time.Time `yaml:"created_at"`
}
