package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory categories. Extraction output is validated against this closed set.
const (
	MemoryCategoryHealthCondition = "HEALTH_CONDITION"
	MemoryCategoryAllergy         = "ALLERGY"
	MemoryCategoryMedication      = "MEDICATION"
	MemoryCategoryPreference      = "PREFERENCE"
	MemoryCategoryGoal            = "GOAL"
	MemoryCategoryLifestyle       = "LIFESTYLE"
	MemoryCategoryPersonal        = "PERSONAL"
)

// MemoryCategories lists every valid category
var MemoryCategories = []string{
	MemoryCategoryHealthCondition,
	MemoryCategoryAllergy,
	MemoryCategoryMedication,
	MemoryCategoryPreference,
	MemoryCategoryGoal,
	MemoryCategoryLifestyle,
	MemoryCategoryPersonal,
}

// ValidMemoryCategory reports whether category is one of the known values
func ValidMemoryCategory(category string) bool {
	for _, c := range MemoryCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Memory is a long-term fact about a user, extracted from conversation.
// Deletion is always soft: Active flips to false, the row stays.
type Memory struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          string             `bson:"userId" json:"user_id"`
	Category        string             `bson:"category" json:"category"`
	Content         string             `bson:"content" json:"content"`
	Confidence      float64            `bson:"confidence" json:"confidence"`
	SourceMessageID string             `bson:"sourceMessageId,omitempty" json:"source_message_id,omitempty"`
	Active          bool               `bson:"active" json:"active"`
	CreatedAt       time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updated_at"`
}

// MemoriesToContext formats memories grouped by category for LLM context.
// Returns "" when there is nothing stored.
func MemoriesToContext(memories []Memory) string {
	if len(memories) == 0 {
		return ""
	}

	grouped := make(map[string][]string)
	var order []string
	for _, m := range memories {
		if _, seen := grouped[m.Category]; !seen {
			order = append(order, m.Category)
		}
		grouped[m.Category] = append(grouped[m.Category], m.Content)
	}

	var sb strings.Builder
	for _, category := range order {
		sb.WriteString(fmt.Sprintf("**%s:**\n", categoryLabel(category)))
		for _, item := range grouped[category] {
			sb.WriteString(fmt.Sprintf("  - %s\n", item))
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

// categoryLabel turns an enum tag like HEALTH_CONDITION into a readable
// section heading like "Health Condition"
func categoryLabel(category string) string {
	words := strings.Fields(strings.ToLower(strings.ReplaceAll(category, "_", " ")))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
