package services

import (
	"reflect"
	"testing"
)

func TestExtractName(t *testing.T) {
	e := NewRegexSlotExtractor()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Explicit my name is",
			input:    "my name is Priya",
			expected: "Priya",
		},
		{
			name:     "Hinglish mera naam",
			input:    "mera naam Rohan",
			expected: "Rohan",
		},
		{
			name:     "Bare name",
			input:    "Ankit",
			expected: "Ankit",
		},
		{
			name:     "Two word bare name",
			input:    "ankit sharma",
			expected: "Ankit Sharma",
		},
		{
			name:     "Lowercase explicit",
			input:    "i am ravi",
			expected: "Ravi",
		},
		{
			name:     "Greeting rejected",
			input:    "hello",
			expected: "",
		},
		{
			name:     "Greeting with different case rejected",
			input:    "Hii",
			expected: "",
		},
		{
			name:     "Numbers are not names",
			input:    "12345",
			expected: "",
		},
		{
			name:     "Three plain words rejected",
			input:    "what should eat",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.ExtractName(tt.input); got != tt.expected {
				t.Errorf("ExtractName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestExtractGender(t *testing.T) {
	e := NewRegexSlotExtractor()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Male", input: "I am male", expected: "male"},
		{name: "Female", input: "Female", expected: "female"},
		{name: "Woman maps to female", input: "I'm a woman", expected: "female"},
		{name: "Guy maps to male", input: "just a guy", expected: "male"},
		{name: "Prefer not to say", input: "prefer not to say", expected: "other"},
		{name: "No keyword", input: "25 years old", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.ExtractGender(tt.input); got != tt.expected {
				t.Errorf("ExtractGender(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestExtractAge(t *testing.T) {
	e := NewRegexSlotExtractor()

	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{name: "Years suffix", input: "I am 32 years old", expected: 32},
		{name: "Hinglish saal", input: "28 saal", expected: 28},
		{name: "Age is phrase", input: "my age is 45", expected: 45},
		{name: "Bare number fallback", input: "34", expected: 34},
		{name: "Too young rejected", input: "3 years", expected: 0},
		{name: "Too old rejected", input: "150 years", expected: 0},
		{name: "No number", input: "I feel young", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.ExtractAge(tt.input); got != tt.expected {
				t.Errorf("ExtractAge(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestExtractWeightHeight(t *testing.T) {
	e := NewRegexSlotExtractor()

	tests := []struct {
		name       string
		input      string
		wantWeight float64
		wantHeight float64
	}{
		{
			name:       "Explicit units",
			input:      "I am 70 kg and 165 cm",
			wantWeight: 70,
			wantHeight: 165,
		},
		{
			name:       "Bare numeric pair fallback",
			input:      "70 165",
			wantWeight: 70,
			wantHeight: 165,
		},
		{
			name:       "Weight out of human range",
			input:      "5 kg",
			wantWeight: 0,
			wantHeight: 0,
		},
		{
			name:       "Decimal weight",
			input:      "72.5 kg",
			wantWeight: 72.5,
			wantHeight: 0,
		},
		{
			name:       "Only height",
			input:      "my height is 172 cm",
			wantWeight: 0,
			wantHeight: 172,
		},
		{
			name:       "Pair in wrong ranges ignored",
			input:      "10 20",
			wantWeight: 0,
			wantHeight: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			weight, height := e.ExtractWeightHeight(tt.input)
			if weight != tt.wantWeight || height != tt.wantHeight {
				t.Errorf("ExtractWeightHeight(%q) = (%v, %v), want (%v, %v)",
					tt.input, weight, height, tt.wantWeight, tt.wantHeight)
			}
		})
	}
}

func TestExtractGoals(t *testing.T) {
	e := NewRegexSlotExtractor()

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Weight loss keywords",
			input:    "I want to lose weight",
			expected: []string{"weight loss"},
		},
		{
			name:     "PCOS",
			input:    "I have pcod issues",
			expected: []string{"pcos management"},
		},
		{
			name:     "Multiple goals capped at three",
			input:    "lose weight, build muscle, manage diabetes, reduce stress",
			expected: []string{"weight loss", "muscle gain", "diabetes management"},
		},
		{
			name:     "Other sentinel",
			input:    "other",
			expected: []string{GoalOtherCustom},
		},
		{
			name:     "Default when nothing matched",
			input:    "hello there",
			expected: []string{GoalGeneralWellness},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.ExtractGoals(tt.input); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ExtractGoals(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
