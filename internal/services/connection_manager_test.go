package services

import (
	"testing"

	"disha/internal/models"
)

func newTestConnection(connID, userID string) *models.UserConnection {
	return &models.UserConnection{
		ConnID:    connID,
		UserID:    userID,
		WriteChan: make(chan models.WSEvent, 10),
		StopChan:  make(chan struct{}),
	}
}

func TestConnectionManagerAddRemove(t *testing.T) {
	cm := NewConnectionManager()

	conn := newTestConnection("c1", "u1")
	cm.Add(conn)

	if cm.Count() != 1 {
		t.Errorf("Expected 1 connection, got %d", cm.Count())
	}

	got, exists := cm.Get("c1")
	if !exists || got.UserID != "u1" {
		t.Errorf("Expected to get connection c1 for u1, got %v (exists=%v)", got, exists)
	}

	cm.Remove("c1")
	if cm.Count() != 0 {
		t.Errorf("Expected 0 connections after remove, got %d", cm.Count())
	}
	if _, exists := cm.Get("c1"); exists {
		t.Error("Expected connection to be gone")
	}

	// Removing twice must not panic
	cm.Remove("c1")
}

func TestSendToUserTargetsOnlyThatUser(t *testing.T) {
	cm := NewConnectionManager()

	target := newTestConnection("c1", "u1")
	other := newTestConnection("c2", "u2")
	cm.Add(target)
	cm.Add(other)

	cm.SendToUser("u1", models.NewWSEvent(models.WSEventMessage, map[string]interface{}{"text": "hi"}))

	select {
	case event := <-target.WriteChan:
		if event.Type != models.WSEventMessage {
			t.Errorf("Expected message event, got %s", event.Type)
		}
	default:
		t.Error("Expected event on target connection")
	}

	select {
	case event := <-other.WriteChan:
		t.Errorf("Unexpected event on other user's connection: %v", event)
	default:
	}
}

func TestSendToUserDropsWhenBufferFull(t *testing.T) {
	cm := NewConnectionManager()

	conn := &models.UserConnection{
		ConnID:    "c1",
		UserID:    "u1",
		WriteChan: make(chan models.WSEvent), // unbuffered, no reader
		StopChan:  make(chan struct{}),
	}
	cm.Add(conn)

	// Must not block
	cm.SendToUser("u1", models.NewWSEvent(models.WSEventMessage, nil))
}

func TestSendTyping(t *testing.T) {
	cm := NewConnectionManager()

	conn := newTestConnection("c1", "u1")
	cm.Add(conn)

	cm.SendTyping("u1", true)
	cm.SendTyping("u1", false)

	first := <-conn.WriteChan
	second := <-conn.WriteChan

	if first.Type != models.WSEventTypingStart {
		t.Errorf("Expected typing_start first, got %s", first.Type)
	}
	if second.Type != models.WSEventTypingEnd {
		t.Errorf("Expected typing_end second, got %s", second.Type)
	}
}
