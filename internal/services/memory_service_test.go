package services

import (
	"regexp"
	"testing"
)

func TestParseExtraction(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected int
	}{
		{
			name:     "Clean JSON array",
			response: `[{"category": "HEALTH_CONDITION", "content": "has diabetes", "confidence": 1.0}]`,
			expected: 1,
		},
		{
			name:     "Array wrapped in prose",
			response: "Here are the extracted facts:\n[{\"category\": \"GOAL\", \"content\": \"wants to lose weight\", \"confidence\": 0.9}]\nLet me know if you need more.",
			expected: 1,
		},
		{
			name:     "Markdown code fence",
			response: "```json\n[{\"category\": \"PREFERENCE\", \"content\": \"vegetarian\", \"confidence\": 0.9}, {\"category\": \"LIFESTYLE\", \"content\": \"works night shifts\", \"confidence\": 0.8}]\n```",
			expected: 2,
		},
		{
			name:     "Empty array",
			response: "[]",
			expected: 0,
		},
		{
			name:     "No brackets at all",
			response: "I could not find any facts in this conversation.",
			expected: 0,
		},
		{
			name:     "Malformed JSON inside brackets",
			response: `[{"category": "GOAL", "content": }]`,
			expected: 0,
		},
		{
			name:     "Brackets in wrong order",
			response: "] nothing here [",
			expected: 0,
		},
		{
			name:     "Empty string",
			response: "",
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := parseExtraction(tt.response)
			if len(items) != tt.expected {
				t.Errorf("parseExtraction(%q) returned %d items, want %d", tt.response, len(items), tt.expected)
			}
		})
	}
}

func TestMemoryDedupPattern(t *testing.T) {
	tests := []struct {
		name      string
		stored    string
		candidate string
		duplicate bool
	}{
		{name: "Exact match", stored: "has diabetes", candidate: "has diabetes", duplicate: true},
		{name: "Different casing", stored: "has diabetes", candidate: "Has Diabetes", duplicate: true},
		{name: "All caps", stored: "has diabetes", candidate: "HAS DIABETES", duplicate: true},
		{name: "Longer content is distinct", stored: "has diabetes", candidate: "has diabetes type 2", duplicate: false},
		{name: "Prefix is distinct", stored: "has diabetes type 2", candidate: "has diabetes", duplicate: false},
		{name: "Metacharacters match literally", stored: "walks 2.5 km (daily)", candidate: "walks 2.5 km (daily)", duplicate: true},
		{name: "Metacharacters do not act as regex", stored: "walks 2.5 km (daily)", candidate: "walks 2x5 km daily", duplicate: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// The stored pattern runs with Mongo's "i" option; (?i) is the
			// equivalent here
			re := regexp.MustCompile("(?i)" + memoryDedupPattern(tt.stored))
			if got := re.MatchString(tt.candidate); got != tt.duplicate {
				t.Errorf("dedup(%q, %q) = %v, want %v", tt.stored, tt.candidate, got, tt.duplicate)
			}
		})
	}
}

func TestParseExtractionFields(t *testing.T) {
	items := parseExtraction(`[{"category": "MEDICATION", "content": "takes metformin daily", "confidence": 1.0}]`)
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}
	if items[0].Category != "MEDICATION" {
		t.Errorf("Expected category MEDICATION, got %q", items[0].Category)
	}
	if items[0].Content != "takes metformin daily" {
		t.Errorf("Expected content preserved, got %q", items[0].Content)
	}
	if items[0].Confidence != 1.0 {
		t.Errorf("Expected confidence 1.0, got %v", items[0].Confidence)
	}
}
