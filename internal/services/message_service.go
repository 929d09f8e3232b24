package services

import (
	"context"
	"fmt"
	"time"

	"disha/internal/database"
	"disha/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageService owns reads and writes on the messages collection
type MessageService struct {
	collection *mongo.Collection
}

// NewMessageService creates a new message service
func NewMessageService(db *database.MongoDB) *MessageService {
	return &MessageService{
		collection: db.Collection(database.CollectionMessages),
	}
}

// Save appends one message and returns it with its assigned ID
func (s *MessageService) Save(ctx context.Context, userID, role, content string, options []string, metadata models.MessageMetadata) (*models.Message, error) {
	msg := &models.Message{
		UserID:    userID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Options:   options,
		Metadata:  metadata,
	}

	result, err := s.collection.InsertOne(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	msg.ID = result.InsertedID.(primitive.ObjectID)

	return msg, nil
}

// GetRecent returns the oldest messages of the chronological window, limited
func (s *MessageService) GetRecent(ctx context.Context, userID string, limit int) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}).SetLimit(int64(limit))

	cursor, err := s.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return messages, nil
}

// GetLatest returns the most recent messages in chronological order
func (s *MessageService) GetLatest(ctx context.Context, userID string, limit int) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(int64(limit))

	cursor, err := s.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}

	reverseMessages(messages)
	return messages, nil
}

// GetPaginated returns messages older than the cursor, newest page first in
// request order but chronological within the page. The next cursor points at
// the oldest message returned when more pages exist.
func (s *MessageService) GetPaginated(ctx context.Context, userID, beforeID string, limit int) (*models.MessageListResponse, error) {
	query := bson.M{"userId": userID}

	if beforeID != "" {
		oid, err := primitive.ObjectIDFromHex(beforeID)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor: %w", err)
		}
		query["_id"] = bson.M{"$lt": oid}
	}

	// Fetch one extra to detect whether older pages remain
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(int64(limit + 1))

	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}

	reverseMessages(messages)

	resp := &models.MessageListResponse{
		Messages: messages,
		HasMore:  hasMore,
	}
	if hasMore && len(messages) > 0 {
		resp.NextCursor = messages[0].ID.Hex()
	}
	return resp, nil
}

// SetMemoriesExtracted records the async extraction count on a stored message.
// Written at most once per message, after extraction completes.
func (s *MessageService) SetMemoriesExtracted(ctx context.Context, messageID primitive.ObjectID, count int) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": messageID},
		bson.M{"$set": bson.M{"metadata.memoriesExtracted": count}},
	)
	if err != nil {
		return fmt.Errorf("failed to update message metadata: %w", err)
	}
	return nil
}

func reverseMessages(messages []models.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}
