package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub, projectID uuid.UUID) *Client {
	return &Client{
		hub:       hub,
		projectID: projectID,
		send:      make(chan []byte, sendBuffer),
	}
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case data := <-c.send:
		var event Event
		require.NoError(t, json.Unmarshal(data, &event))
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHub_PublishReachesRoomMembers(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	projectID := uuid.New()
	first := newTestClient(hub, projectID)
	second := newTestClient(hub, projectID)
	hub.register <- first
	hub.register <- second

	hub.Publish(projectID, EventTaskCreated, map[string]string{"id": "t1"})

	for _, client := range []*Client{first, second} {
		event := receive(t, client)
		assert.Equal(t, EventTaskCreated, event.Type)
		assert.Equal(t, projectID.String(), event.ProjectID)
	}
}

func TestHub_RoomsAreIsolated(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	projectA := uuid.New()
	projectB := uuid.New()
	memberA := newTestClient(hub, projectA)
	memberB := newTestClient(hub, projectB)
	hub.register <- memberA
	hub.register <- memberB

	hub.Publish(projectA, EventProjectUpdated, nil)

	event := receive(t, memberA)
	assert.Equal(t, EventProjectUpdated, event.Type)

	select {
	case data := <-memberB.send:
		t.Fatalf("member of another project received event: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	projectID := uuid.New()
	client := newTestClient(hub, projectID)
	hub.register <- client
	hub.unregister <- client

	select {
	case _, open := <-client.send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed")
	}

	// Publishing into the now-empty room must not panic or block.
	hub.Publish(projectID, EventTaskDeleted, nil)
}

func TestHub_PublishNeverBlocksWithoutSubscribers(t *testing.T) {
	hub := NewHub() // Run is intentionally not started

	done := make(chan struct{})
	go func() {
		for i := 0; i < 256; i++ {
			hub.Publish(uuid.New(), EventTaskUpdated, nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked the caller")
	}
}
