package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"disha/internal/database"
	"disha/internal/llm"
	"disha/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// minExtractionLength skips extraction for throwaway messages
const minExtractionLength = 20

const memoryExtractionPrompt = `Analyze this conversation and extract important facts about the user that should be remembered long-term.

ONLY extract explicit information that the user has stated. Do NOT infer or assume anything.

Categories:
- HEALTH_CONDITION: Health issues/conditions (e.g., "has diabetes", "high blood pressure", "PCOS")
- ALLERGY: Allergies (e.g., "allergic to peanuts", "lactose intolerant")
- MEDICATION: Medications being taken (e.g., "takes metformin", "on thyroid medication")
- PREFERENCE: Health/lifestyle preferences (e.g., "vegetarian", "prefers morning workouts")
- GOAL: Health goals (e.g., "wants to lose 10kg", "trying to manage stress")
- LIFESTYLE: Lifestyle facts (e.g., "works night shifts", "sedentary job")
- PERSONAL: Personal info (e.g., "name is Rahul", "32 years old")

Conversation:
%s

Return ONLY a valid JSON array. If no facts found, return empty array: []
Format: [{"category": "CATEGORY", "content": "fact about user", "confidence": 0.9}]

Examples of good extractions:
- User says "I have diabetes" → {"category": "HEALTH_CONDITION", "content": "has diabetes", "confidence": 1.0}
- User says "I'm trying to lose weight" → {"category": "GOAL", "content": "wants to lose weight", "confidence": 0.9}
- User says "I take metformin every morning" → {"category": "MEDICATION", "content": "takes metformin daily", "confidence": 1.0}

JSON array:`

// extractedMemory is one item of the model's extraction output
type extractedMemory struct {
	Category   string  `json:"category"`
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
}

// MemoryService extracts long-term facts about users from conversation turns
// and stores them with soft-delete semantics. At most one active memory per
// (user, category, content) triple exists, compared case-insensitively.
type MemoryService struct {
	collection *mongo.Collection
	provider   llm.Provider
}

// NewMemoryService creates a new memory service
func NewMemoryService(db *database.MongoDB, provider llm.Provider) *MemoryService {
	return &MemoryService{
		collection: db.Collection(database.CollectionMemories),
		provider:   provider,
	}
}

// GetUserMemories returns active memories for a user, newest first
func (s *MemoryService) GetUserMemories(ctx context.Context, userID string, categories []string, limit int) ([]models.Memory, error) {
	query := bson.M{"userId": userID, "active": true}
	if len(categories) > 0 {
		query["category"] = bson.M{"$in": categories}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(int64(limit))
	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch memories: %w", err)
	}
	defer cursor.Close(ctx)

	var memories []models.Memory
	if err := cursor.All(ctx, &memories); err != nil {
		return nil, fmt.Errorf("failed to decode memories: %w", err)
	}
	return memories, nil
}

// MemoriesContext returns the formatted memory section for the system prompt
func (s *MemoryService) MemoriesContext(ctx context.Context, userID string) (string, error) {
	memories, err := s.GetUserMemories(ctx, userID, nil, 20)
	if err != nil {
		return "", err
	}
	return models.MemoriesToContext(memories), nil
}

// AddMemory stores one memory unless an identical active one already exists
// for the same user and category. Returns the stored or existing memory and
// whether a new record was inserted.
func (s *MemoryService) AddMemory(ctx context.Context, userID, category, content string, confidence float64, sourceMessageID string) (*models.Memory, bool, error) {
	// Case-insensitive exact-content dedup check
	var existing models.Memory
	err := s.collection.FindOne(ctx, bson.M{
		"userId":   userID,
		"category": category,
		"content":  bson.M{"$regex": memoryDedupPattern(content), "$options": "i"},
		"active":   true,
	}).Decode(&existing)
	if err == nil {
		return &existing, false, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, false, fmt.Errorf("failed to check for duplicate memory: %w", err)
	}

	now := time.Now().UTC()
	memory := &models.Memory{
		UserID:          userID,
		Category:        category,
		Content:         content,
		Confidence:      confidence,
		SourceMessageID: sourceMessageID,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	result, err := s.collection.InsertOne(ctx, memory)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert memory: %w", err)
	}
	memory.ID = result.InsertedID.(primitive.ObjectID)

	log.Printf("🧠 Added memory for user %s: [%s] %s", userID, category, content)

	return memory, true, nil
}

// ExtractAndStore runs model-based fact extraction over one turn and stores
// the results. Returns the number of newly inserted memories and the number
// dropped as duplicates; invalid items count as neither.
func (s *MemoryService) ExtractAndStore(ctx context.Context, userID, userMessage, assistantMessage, sourceMessageID string) (int, int, error) {
	if len(userMessage) < minExtractionLength {
		return 0, 0, nil
	}

	conversation := fmt.Sprintf("User: %s\nAssistant: %s", userMessage, assistantMessage)
	prompt := fmt.Sprintf(memoryExtractionPrompt, conversation)

	response, err := s.provider.Generate(ctx,
		[]llm.ChatMessage{{Role: models.RoleUser, Content: prompt}},
		0.1, // low temperature for consistent extraction
		500,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("memory extraction call failed: %w", err)
	}

	extracted := parseExtraction(response.Content)

	count, duplicates := 0, 0
	for _, item := range extracted {
		category := strings.ToUpper(strings.TrimSpace(item.Category))
		content := strings.TrimSpace(item.Content)

		if !models.ValidMemoryCategory(category) {
			log.Printf("⚠️ Skipping memory with unknown category %q", item.Category)
			continue
		}
		if len(content) <= 3 {
			continue
		}

		confidence := item.Confidence
		if confidence == 0 {
			confidence = 0.8
		}

		_, inserted, err := s.AddMemory(ctx, userID, category, content, confidence, sourceMessageID)
		if err != nil {
			return count, duplicates, err
		}
		if inserted {
			count++
		} else {
			duplicates++
		}
	}

	return count, duplicates, nil
}

// memoryDedupPattern anchors extracted content as an exact-text match with
// regex metacharacters escaped. Combined with the case-insensitive option it
// defines the duplicate rule: same text, any casing, nothing more or less.
func memoryDedupPattern(content string) string {
	return "^" + regexp.QuoteMeta(content) + "$"
}

// parseExtraction tolerantly decodes the model's output: only the span from
// the first '[' to the last ']' is parsed, and any decode failure means no
// facts were found.
func parseExtraction(response string) []extractedMemory {
	response = strings.TrimSpace(response)

	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start == -1 || end == -1 || end < start {
		return nil
	}

	var items []extractedMemory
	if err := json.Unmarshal([]byte(response[start:end+1]), &items); err != nil {
		log.Printf("⚠️ Failed to parse memory extraction response: %v", err)
		return nil
	}
	return items
}

// Deactivate soft-deletes one memory
func (s *MemoryService) Deactivate(ctx context.Context, memoryID primitive.ObjectID) (bool, error) {
	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": memoryID},
		bson.M{"$set": bson.M{"active": false, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate memory: %w", err)
	}
	return result.ModifiedCount > 0, nil
}

// ClearUserMemories soft-deletes all active memories for a user
func (s *MemoryService) ClearUserMemories(ctx context.Context, userID string) (int64, error) {
	result, err := s.collection.UpdateMany(ctx,
		bson.M{"userId": userID, "active": true},
		bson.M{"$set": bson.M{"active": false, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to clear memories: %w", err)
	}
	return result.ModifiedCount, nil
}
