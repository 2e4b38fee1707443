package eventbus

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type EventType string

const (
	EventTypeTaskCreated   EventType = "task.created"
	EventTypeTaskUpdated   EventType = "task.updated"
	EventTypeTaskCompleted EventType = "task.completed"
	EventTypeMemberAdded   EventType = "project.member_added"
)

// Event describes a domain change published on the bus. Metadata carries
// enough context for subscribers to act without re-reading the store.
type Event struct {
	ID        string
	Type      EventType
	TaskID    string
	ActorID   string
	Metadata  map[string]string
	CreatedAt time.Time
}

type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan *Event
}

func New() *Bus {
	return &Bus{
		subscribers: make(map[string]chan *Event),
	}
}

func (b *Bus) Subscribe(bufSize int) (string, <-chan *Event) {
	id := ulid.Make().String()
	ch := make(chan *Event, bufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// buffer full, drop event for this subscriber
		}
	}
}

func (b *Bus) PublishNew(eventType EventType, taskID, actorID string, metadata map[string]string) {
	b.Publish(&Event{
		ID:        ulid.Make().String(),
		Type:      eventType,
		TaskID:    taskID,
		ActorID:   actorID,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	})
}
