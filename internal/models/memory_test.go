package models

import (
	"testing"
)

func TestValidMemoryCategory(t *testing.T) {
	tests := []struct {
		name     string
		category string
		expected bool
	}{
		{name: "Health condition", category: "HEALTH_CONDITION", expected: true},
		{name: "Goal", category: "GOAL", expected: true},
		{name: "Lowercase rejected", category: "goal", expected: false},
		{name: "Unknown rejected", category: "TRIVIA", expected: false},
		{name: "Empty rejected", category: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidMemoryCategory(tt.category); got != tt.expected {
				t.Errorf("ValidMemoryCategory(%q) = %v, want %v", tt.category, got, tt.expected)
			}
		})
	}
}

func TestMemoriesToContext(t *testing.T) {
	memories := []Memory{
		{Category: MemoryCategoryHealthCondition, Content: "has diabetes"},
		{Category: MemoryCategoryPreference, Content: "vegetarian"},
		{Category: MemoryCategoryHealthCondition, Content: "high blood pressure"},
	}

	expected := "**Health Condition:**\n" +
		"  - has diabetes\n" +
		"  - high blood pressure\n" +
		"**Preference:**\n" +
		"  - vegetarian"

	if got := MemoriesToContext(memories); got != expected {
		t.Errorf("MemoriesToContext() = %q, want %q", got, expected)
	}
}

func TestCategoryLabel(t *testing.T) {
	tests := []struct {
		name     string
		category string
		expected string
	}{
		{name: "Two words", category: "HEALTH_CONDITION", expected: "Health Condition"},
		{name: "Single word", category: "GOAL", expected: "Goal"},
		{name: "Already mixed case", category: "Lifestyle", expected: "Lifestyle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := categoryLabel(tt.category); got != tt.expected {
				t.Errorf("categoryLabel(%q) = %q, want %q", tt.category, got, tt.expected)
			}
		})
	}
}

func TestMemoriesToContextEmpty(t *testing.T) {
	if got := MemoriesToContext(nil); got != "" {
		t.Errorf("Expected empty context, got %q", got)
	}
}
