package tips

import "context"

type Repository interface {
	Create(ctx context.Context, t *SavedTip) error
	Get(ctx context.Context, id string) (*SavedTip, error)
	// ListByUser returns the user's saved tips, newest first.
	ListByUser(ctx context.Context, userID string) ([]*SavedTip, error)
	Delete(ctx context.Context, id string) error
}
