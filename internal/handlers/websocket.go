package handlers

import (
	"encoding/json"
	"log"
	"time"

	"disha/internal/models"
	"disha/internal/services"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// WebSocketHandler serves the real-time event socket. The socket carries
// server-pushed events (typing indicators) plus a client ping/pong; chat
// turns themselves go through the HTTP endpoint.
type WebSocketHandler struct {
	connManager *services.ConnectionManager
	metrics     *services.Metrics
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(connManager *services.ConnectionManager, metrics *services.Metrics) *WebSocketHandler {
	return &WebSocketHandler{
		connManager: connManager,
		metrics:     metrics,
	}
}

// Handle handles a new connection on /ws/chat/:userID
func (h *WebSocketHandler) Handle(c *websocket.Conn) {
	userID := c.Params("userID")
	connID := uuid.New().String()

	userConn := &models.UserConnection{
		ConnID:    connID,
		UserID:    userID,
		WriteChan: make(chan models.WSEvent, 32),
		StopChan:  make(chan struct{}),
	}

	h.connManager.Add(userConn)
	defer h.connManager.Remove(connID)

	go h.writeLoop(c, userConn)

	h.readLoop(c, userConn)
}

// writeLoop is the single writer for one connection
func (h *WebSocketHandler) writeLoop(c *websocket.Conn, conn *models.UserConnection) {
	for {
		select {
		case event, ok := <-conn.WriteChan:
			if !ok {
				return
			}
			if err := c.WriteJSON(event); err != nil {
				log.Printf("⚠️ WebSocket write failed for %s: %v", conn.ConnID, err)
				return
			}
			h.metrics.WebSocketMessages.WithLabelValues(event.Type, "outbound").Inc()
		case <-conn.StopChan:
			return
		}
	}
}

// readLoop consumes client frames until the connection closes
func (h *WebSocketHandler) readLoop(c *websocket.Conn, conn *models.UserConnection) {
	c.SetReadDeadline(time.Now().Add(5 * time.Minute))
	c.SetPongHandler(func(string) error {
		c.SetReadDeadline(time.Now().Add(5 * time.Minute))
		return nil
	})

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			return
		}
		c.SetReadDeadline(time.Now().Add(5 * time.Minute))

		var incoming models.WSIncoming
		if err := json.Unmarshal(raw, &incoming); err != nil {
			continue
		}
		h.metrics.WebSocketMessages.WithLabelValues(incoming.Type, "inbound").Inc()

		if incoming.Type == "ping" {
			select {
			case conn.WriteChan <- models.NewWSEvent(models.WSEventPong, nil):
			default:
			}
		}
	}
}
