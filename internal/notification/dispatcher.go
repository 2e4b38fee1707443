package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/taskflowhq/taskflow/internal/eventbus"
	"github.com/taskflowhq/taskflow/pkg/panicerr"
)

// Pusher delivers a notification out-of-band, e.g. over web push. Delivery is
// best effort; failures are logged and never block the in-app notification.
type Pusher interface {
	Push(ctx context.Context, userID, title, body string) error
}

// Dispatcher turns domain events into stored notifications. It decouples the
// request path from notification writes: handlers publish and return, the
// dispatcher catches up on its own goroutine.
type Dispatcher struct {
	repo   Repository
	bus    *eventbus.Bus
	pusher Pusher
}

func NewDispatcher(repo Repository, bus *eventbus.Bus, pusher Pusher) *Dispatcher {
	return &Dispatcher{repo: repo, bus: bus, pusher: pusher}
}

const subscriberBuffer = 64

// Run consumes events until the context is canceled.
func (d *Dispatcher) Run(ctx context.Context) error {
	id, events := d.bus.Subscribe(subscriberBuffer)
	defer d.bus.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			handle := panicerr.SafeContext(func(ctx context.Context) error {
				return d.handle(ctx, event)
			})
			if err := handle(ctx); err != nil {
				slog.ErrorContext(ctx, "failed to handle event",
					slog.String("event_id", event.ID),
					slog.String("event_type", string(event.Type)),
					slog.Any("error", err))
			}
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, event *eventbus.Event) error {
	switch event.Type {
	case eventbus.EventTypeTaskCreated, eventbus.EventTypeTaskUpdated:
		return d.notifyAssignee(ctx, event)
	case eventbus.EventTypeTaskCompleted:
		return d.notifyCreatorCompleted(ctx, event)
	case eventbus.EventTypeMemberAdded:
		return d.notifyInvitee(ctx, event)
	}
	return nil
}

// notifyAssignee tells a user a task landed on their plate. Self-assignment
// is silent.
func (d *Dispatcher) notifyAssignee(ctx context.Context, event *eventbus.Event) error {
	assigneeID := event.Metadata["assignee_id"]
	if assigneeID == "" || assigneeID == event.ActorID {
		return nil
	}
	return d.deliver(ctx, &Notification{
		ID:        ulid.Make().String(),
		UserID:    assigneeID,
		Type:      TypeTaskAssigned,
		Title:     "Task assigned to you",
		Body:      event.Metadata["title"],
		TaskID:    event.TaskID,
		CreatedAt: event.CreatedAt,
	})
}

// notifyCreatorCompleted tells the creator someone else finished their task.
// Under creator-only visibility the actor is always the creator, so this only
// fires with the broader visibility policy.
func (d *Dispatcher) notifyCreatorCompleted(ctx context.Context, event *eventbus.Event) error {
	createdBy := event.Metadata["created_by"]
	if createdBy == "" || createdBy == event.ActorID {
		return nil
	}
	return d.deliver(ctx, &Notification{
		ID:        ulid.Make().String(),
		UserID:    createdBy,
		Type:      TypeTaskStatusChanged,
		Title:     "Task completed",
		Body:      event.Metadata["title"],
		TaskID:    event.TaskID,
		CreatedAt: event.CreatedAt,
	})
}

func (d *Dispatcher) notifyInvitee(ctx context.Context, event *eventbus.Event) error {
	userID := event.Metadata["user_id"]
	if userID == "" || userID == event.ActorID {
		return nil
	}
	return d.deliver(ctx, &Notification{
		ID:        ulid.Make().String(),
		UserID:    userID,
		Type:      TypeProjectInvite,
		Title:     "Added to a project",
		Body:      fmt.Sprintf("You were added to %s as %s", event.Metadata["project_name"], event.Metadata["role"]),
		ProjectID: event.Metadata["project_id"],
		CreatedAt: event.CreatedAt,
	})
}

func (d *Dispatcher) deliver(ctx context.Context, n *Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if err := d.repo.Create(ctx, n); err != nil {
		return err
	}
	if d.pusher != nil {
		if err := d.pusher.Push(ctx, n.UserID, n.Title, n.Body); err != nil {
			slog.WarnContext(ctx, "push delivery failed",
				slog.String("user_id", n.UserID),
				slog.Any("error", err))
		}
	}
	return nil
}
