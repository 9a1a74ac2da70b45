package realtime

import (
	"log"
	"net/http"
	"time"

	"github.com/OFThub/ToDoList/internal/access"
	"github.com/OFThub/ToDoList/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The browser client connects from a different origin in development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one websocket subscriber joined to a project room.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	projectID uuid.UUID
	send      chan []byte
}

// readPump drains the connection so pings are answered and a closed peer
// unregisters itself. Inbound messages are ignored: the channel is push-only.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Handler upgrades authenticated requests and joins them to project rooms.
type Handler struct {
	hub      *Hub
	resolver *access.Resolver
}

func NewHandler(hub *Hub, resolver *access.Resolver) *Handler {
	return &Handler{hub: hub, resolver: resolver}
}

// ServeProject joins the caller to the project's room. Requires read access;
// a user removed from a private project cannot keep listening by reconnecting.
func (h *Handler) ServeProject(c *gin.Context) {
	userID, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	authenticatedUserID, ok := userID.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
		return
	}

	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return
	}

	if _, err := h.resolver.ResolveProject(c.Request.Context(), authenticatedUserID, projectID, access.LevelRead); err != nil {
		status, body := access.ErrorResponse(err)
		c.JSON(status, body)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("⚠️  Websocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:       h.hub,
		conn:      conn,
		projectID: projectID,
		send:      make(chan []byte, sendBuffer),
	}
	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}
