package task

import "context"

type Repository interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	// ListByCreator returns every task authored by the given user.
	ListByCreator(ctx context.Context, userID string) ([]*Task, error)
	// ListInvolving returns tasks the user created, is assigned to, or that
	// belong to one of the given projects. Used by the broader visibility
	// policy only.
	ListInvolving(ctx context.Context, userID string, projectIDs []string) ([]*Task, error)
	Update(ctx context.Context, t *Task) error
}
