package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflowhq/taskflow/internal/eventbus"
	"github.com/taskflowhq/taskflow/pkg/cerr"
)

type memoryRepository struct {
	mu            sync.Mutex
	notifications map[string]*Notification
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{notifications: make(map[string]*Notification)}
}

func (r *memoryRepository) Create(_ context.Context, n *Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *n
	r.notifications[n.ID] = &clone
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (*Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[id]
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "notification not found", nil)
	}
	clone := *n
	return &clone, nil
}

func (r *memoryRepository) ListByUser(_ context.Context, userID string) ([]*Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			clone := *n
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memoryRepository) Update(_ context.Context, n *Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *n
	r.notifications[n.ID] = &clone
	return nil
}

type recordingPusher struct {
	mu     sync.Mutex
	pushes []string
}

func (p *recordingPusher) Push(_ context.Context, userID, _, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = append(p.pushes, userID)
	return nil
}

func (p *recordingPusher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pushes)
}

func startDispatcher(t *testing.T, repo Repository, pusher Pusher) *eventbus.Bus {
	t.Helper()
	bus := eventbus.New()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	d := NewDispatcher(repo, bus, pusher)
	go func() { _ = d.Run(ctx) }()
	// Give the subscriber a moment to register before tests publish.
	time.Sleep(10 * time.Millisecond)
	return bus
}

func TestDispatcherTaskAssigned(t *testing.T) {
	repo := newMemoryRepository()
	pusher := &recordingPusher{}
	bus := startDispatcher(t, repo, pusher)

	bus.PublishNew(eventbus.EventTypeTaskCreated, "01TASK00000000000000000000", "alice", map[string]string{
		"title":       "review the draft",
		"assignee_id": "bob",
	})

	require.Eventually(t, func() bool {
		notifications, err := repo.ListByUser(context.Background(), "bob")
		return err == nil && len(notifications) == 1
	}, time.Second, 10*time.Millisecond)

	notifications, err := repo.ListByUser(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, TypeTaskAssigned, notifications[0].Type)
	assert.Equal(t, "review the draft", notifications[0].Body)
	assert.False(t, notifications[0].Read)

	require.Eventually(t, func() bool { return pusher.count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestDispatcherIgnoresSelfAssignment(t *testing.T) {
	repo := newMemoryRepository()
	bus := startDispatcher(t, repo, nil)

	bus.PublishNew(eventbus.EventTypeTaskCreated, "01TASK00000000000000000000", "alice", map[string]string{
		"title":       "my own task",
		"assignee_id": "alice",
	})
	bus.PublishNew(eventbus.EventTypeTaskCompleted, "01TASK00000000000000000000", "alice", map[string]string{
		"title": "my own task",
	})

	time.Sleep(50 * time.Millisecond)
	notifications, err := repo.ListByUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

func TestDispatcherProjectInvite(t *testing.T) {
	repo := newMemoryRepository()
	bus := startDispatcher(t, repo, nil)

	bus.PublishNew(eventbus.EventTypeMemberAdded, "", "alice", map[string]string{
		"project_id":   "01PROJ00000000000000000000",
		"project_name": "Website relaunch",
		"user_id":      "bob",
		"role":         "MEMBER",
	})

	require.Eventually(t, func() bool {
		notifications, err := repo.ListByUser(context.Background(), "bob")
		return err == nil && len(notifications) == 1
	}, time.Second, 10*time.Millisecond)

	notifications, err := repo.ListByUser(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, TypeProjectInvite, notifications[0].Type)
	assert.Equal(t, "01PROJ00000000000000000000", notifications[0].ProjectID)
	assert.Contains(t, notifications[0].Body, "Website relaunch")
}
