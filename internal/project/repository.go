package project

import "context"

type Repository interface {
	Create(ctx context.Context, p *Project) error
	Get(ctx context.Context, id string) (*Project, error)
	ListByOwner(ctx context.Context, userID string) ([]*Project, error)
	// ProjectName returns the display name for a project. Also satisfies
	// task.ProjectSource for task serialization.
	ProjectName(ctx context.Context, id string) (string, error)
	Update(ctx context.Context, p *Project) error
}

type MembershipRepository interface {
	Create(ctx context.Context, m *Membership) error
	// GetByUserAndProject returns NotFound when the pair has no membership.
	GetByUserAndProject(ctx context.Context, userID, projectID string) (*Membership, error)
	ListByProject(ctx context.Context, projectID string) ([]*Membership, error)
	// ActiveProjectIDs returns the projects the user is an active member of.
	// Also satisfies task.MembershipSource for the broader visibility policy.
	ActiveProjectIDs(ctx context.Context, userID string) ([]string, error)
	Update(ctx context.Context, m *Membership) error
}
