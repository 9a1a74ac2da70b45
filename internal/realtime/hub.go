// Package realtime fans project change events out to websocket subscribers.
// Delivery is best-effort: events are published after the database write,
// fire-and-forget, with no ordering guarantee.
package realtime

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"
)

// Event is the payload pushed to a project room.
type Event struct {
	Type      string      `json:"type"`
	ProjectID string      `json:"project_id"`
	Payload   interface{} `json:"payload,omitempty"`
}

// Event types emitted by the handlers.
const (
	EventProjectUpdated     = "project_updated"
	EventProjectDeleted     = "project_deleted"
	EventTaskCreated        = "task_created"
	EventTaskUpdated        = "task_updated"
	EventTaskDeleted        = "task_deleted"
	EventCollaboratorAdded  = "collaborator_added"
	EventCollaboratorChange = "collaborator_changed"
	EventCollaboratorGone   = "collaborator_removed"
)

// Publisher is the notification sink handed to handlers.
type Publisher interface {
	Publish(projectID uuid.UUID, eventType string, payload interface{})
}

type message struct {
	projectID uuid.UUID
	data      []byte
}

// Hub keeps one room per project and relays events to its members.
type Hub struct {
	rooms map[uuid.UUID]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan message
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 64),
	}
}

// Run owns the room registry. Start it once, in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			room := h.rooms[client.projectID]
			if room == nil {
				room = make(map[*Client]bool)
				h.rooms[client.projectID] = room
			}
			room[client] = true

		case client := <-h.unregister:
			if room, ok := h.rooms[client.projectID]; ok {
				if room[client] {
					delete(room, client)
					close(client.send)
					if len(room) == 0 {
						delete(h.rooms, client.projectID)
					}
				}
			}

		case msg := <-h.broadcast:
			for client := range h.rooms[msg.projectID] {
				select {
				case client.send <- msg.data:
				default:
					// Slow consumer: drop it rather than block the hub.
					delete(h.rooms[msg.projectID], client)
					close(client.send)
				}
			}
		}
	}
}

var _ Publisher = (*Hub)(nil)

// Publish sends an event to every subscriber of the project room. It never
// blocks the caller and never reports failure.
func (h *Hub) Publish(projectID uuid.UUID, eventType string, payload interface{}) {
	data, err := json.Marshal(Event{
		Type:      eventType,
		ProjectID: projectID.String(),
		Payload:   payload,
	})
	if err != nil {
		log.Printf("⚠️  Failed to encode %s event: %v", eventType, err)
		return
	}

	select {
	case h.broadcast <- message{projectID: projectID, data: data}:
	default:
	}
}
