package services

import (
	"log"
	"sync"

	"disha/internal/models"
)

// ConnectionManager manages all active WebSocket connections
type ConnectionManager struct {
	connections map[string]*models.UserConnection
	mutex       sync.RWMutex
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*models.UserConnection),
	}
}

// Add adds a new connection
func (cm *ConnectionManager) Add(conn *models.UserConnection) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	cm.connections[conn.ConnID] = conn
	log.Printf("✅ Connection added: %s user=%s (Total: %d)", conn.ConnID, conn.UserID, len(cm.connections))
}

// Remove removes a connection
func (cm *ConnectionManager) Remove(connID string) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	if conn, exists := cm.connections[connID]; exists {
		close(conn.WriteChan)
		close(conn.StopChan)
		delete(cm.connections, connID)
		log.Printf("❌ Connection removed: %s (Total: %d)", connID, len(cm.connections))
	}
}

// Get retrieves a connection by ID
func (cm *ConnectionManager) Get(connID string) (*models.UserConnection, bool) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	conn, exists := cm.connections[connID]
	return conn, exists
}

// Count returns the number of active connections
func (cm *ConnectionManager) Count() int {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return len(cm.connections)
}

// SendToUser delivers an event to every live connection of a user.
// Fire and forget: a connection with a full write buffer is skipped.
func (cm *ConnectionManager) SendToUser(userID string, event models.WSEvent) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	for _, conn := range cm.connections {
		if conn.UserID != userID {
			continue
		}
		select {
		case conn.WriteChan <- event:
		default:
			log.Printf("⚠️ Dropping event for slow connection %s", conn.ConnID)
		}
	}
}

// SendTyping pushes a typing start or end signal to a user's connections
func (cm *ConnectionManager) SendTyping(userID string, typing bool) {
	eventType := models.WSEventTypingEnd
	if typing {
		eventType = models.WSEventTypingStart
	}
	cm.SendToUser(userID, models.NewWSEvent(eventType, nil))
}
