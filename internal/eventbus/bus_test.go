package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()

	id, ch := bus.Subscribe(4)
	defer bus.Unsubscribe(id)

	bus.PublishNew(EventTypeTaskCreated, "task-1", "user-1", map[string]string{"title": "write tests"})

	select {
	case ev := <-ch:
		assert.Equal(t, EventTypeTaskCreated, ev.Type)
		assert.Equal(t, "task-1", ev.TaskID)
		assert.Equal(t, "user-1", ev.ActorID)
		assert.Equal(t, "write tests", ev.Metadata["title"])
		assert.NotEmpty(t, ev.ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBus_DropsWhenBufferFull(t *testing.T) {
	bus := New()

	id, ch := bus.Subscribe(1)
	defer bus.Unsubscribe(id)

	bus.PublishNew(EventTypeTaskCreated, "task-1", "user-1", nil)
	bus.PublishNew(EventTypeTaskUpdated, "task-1", "user-1", nil)

	ev := <-ch
	require.Equal(t, EventTypeTaskCreated, ev.Type)

	select {
	case ev := <-ch:
		t.Fatalf("expected second event to be dropped, got %s", ev.Type)
	default:
	}
}

func TestBus_UnsubscribeClosesChannel(t *testing.T) {
	bus := New()

	id, ch := bus.Subscribe(1)
	bus.Unsubscribe(id)

	_, ok := <-ch
	assert.False(t, ok)
}
