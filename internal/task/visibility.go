package task

import (
	"context"

	"github.com/taskflowhq/taskflow/pkg/cerr"
)

// Visibility is the single place the ownership policy lives. Handlers never
// compare creator/assignee fields themselves; they go through the configured
// Visibility so the policy can be swapped without touching call sites.
type Visibility interface {
	// VisibleTo returns every task the actor may read.
	VisibleTo(ctx context.Context, actorID string) ([]*Task, error)
	// Resolve fetches a single task by public ID, scoped to the actor. A
	// missing task and a task owned by someone else are both reported as
	// NotFound so callers cannot probe for existence.
	Resolve(ctx context.Context, actorID, id string) (*Task, error)
}

// CreatorOnlyVisibility is the active policy: an actor sees exactly the
// tasks they created.
type CreatorOnlyVisibility struct {
	repo Repository
}

func NewCreatorOnlyVisibility(repo Repository) *CreatorOnlyVisibility {
	return &CreatorOnlyVisibility{repo: repo}
}

func (v *CreatorOnlyVisibility) VisibleTo(ctx context.Context, actorID string) ([]*Task, error) {
	return v.repo.ListByCreator(ctx, actorID)
}

func (v *CreatorOnlyVisibility) Resolve(ctx context.Context, actorID, id string) (*Task, error) {
	t, err := v.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.CreatedBy != actorID {
		return nil, cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	return t, nil
}

// MembershipSource yields the projects a user actively belongs to. Satisfied
// by the project membership repository.
type MembershipSource interface {
	ActiveProjectIDs(ctx context.Context, userID string) ([]string, error)
}

// InvolvedVisibility is the earlier, broader policy: creator OR assignee OR
// active project membership. Kept as a named alternative so reverting the
// creator-only narrowing is a one-line change in server wiring.
type InvolvedVisibility struct {
	repo        Repository
	memberships MembershipSource
}

func NewInvolvedVisibility(repo Repository, memberships MembershipSource) *InvolvedVisibility {
	return &InvolvedVisibility{repo: repo, memberships: memberships}
}

func (v *InvolvedVisibility) VisibleTo(ctx context.Context, actorID string) ([]*Task, error) {
	projectIDs, err := v.memberships.ActiveProjectIDs(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return v.repo.ListInvolving(ctx, actorID, projectIDs)
}

func (v *InvolvedVisibility) Resolve(ctx context.Context, actorID, id string) (*Task, error) {
	t, err := v.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.CreatedBy == actorID || t.AssigneeID == actorID {
		return t, nil
	}
	if t.ProjectID != "" {
		projectIDs, err := v.memberships.ActiveProjectIDs(ctx, actorID)
		if err != nil {
			return nil, err
		}
		for _, pid := range projectIDs {
			if pid == t.ProjectID {
				return t, nil
			}
		}
	}
	return nil, cerr.NewError(cerr.NotFound, "task not found", nil)
}
