package models

import "time"

// WebSocket event types pushed to connected clients
const (
	WSEventTypingStart = "typing_start"
	WSEventTypingEnd   = "typing_end"
	WSEventMessage     = "message"
	WSEventError       = "error"
	WSEventPong        = "pong"
)

// WSEvent is the envelope for every server-to-client websocket frame
type WSEvent struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// WSIncoming is what clients send over the chat socket
type WSIncoming struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// UserConnection is one live websocket session. Frames are written by a
// single writer goroutine draining WriteChan.
type UserConnection struct {
	ConnID    string
	UserID    string
	WriteChan chan WSEvent
	StopChan  chan struct{}
}

// NewWSEvent builds an event stamped with the current time
func NewWSEvent(eventType string, data interface{}) WSEvent {
	return WSEvent{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}
