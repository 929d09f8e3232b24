package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// MessageMetadata carries per-message diagnostics. MemoriesExtracted is the
// only field written after insert (once, when async extraction finishes).
type MessageMetadata struct {
	TokensUsed        int    `bson:"tokensUsed,omitempty" json:"tokens_used,omitempty"`
	ModelUsed         string `bson:"modelUsed,omitempty" json:"model_used,omitempty"`
	ProtocolMatched   string `bson:"protocolMatched,omitempty" json:"protocol_matched,omitempty"`
	ResponseTimeMs    int    `bson:"responseTimeMs,omitempty" json:"response_time_ms,omitempty"`
	MemoriesExtracted int    `bson:"memoriesExtracted,omitempty" json:"memories_extracted,omitempty"`
}

// Message represents one stored chat message
type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"userId" json:"user_id"`
	Role      string             `bson:"role" json:"role"`
	Content   string             `bson:"content" json:"content"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	Options   []string           `bson:"options,omitempty" json:"options,omitempty"` // quick-reply labels
	Metadata  MessageMetadata    `bson:"metadata" json:"metadata"`
}

// ChatRequest is the body of POST /api/messages
type ChatRequest struct {
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}

// ChatTurnResponse returns both sides of a processed turn
type ChatTurnResponse struct {
	UserMessage        Message `json:"user_message"`
	AssistantMessage   Message `json:"assistant_message"`
	OnboardingComplete bool    `json:"onboarding_complete"`
}

// MessageListResponse is the paginated history response
type MessageListResponse struct {
	Messages   []Message `json:"messages"`
	HasMore    bool      `json:"has_more"`
	NextCursor string    `json:"next_cursor,omitempty"`
}
