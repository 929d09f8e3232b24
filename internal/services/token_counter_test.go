package services

import "testing"

func TestCountTokens(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{name: "Empty", input: "", expected: 0},
		{name: "Short word", input: "hi", expected: 1},
		{name: "Four chars", input: "abcd", expected: 1},
		{name: "Five chars rounds up", input: "abcde", expected: 2},
		{name: "Sentence", input: "What should I eat for dinner tonight?", expected: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountTokens(tt.input); got != tt.expected {
				t.Errorf("CountTokens(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCountMessageTokens(t *testing.T) {
	content := "hello world"
	expected := CountTokens(content) + messageTokenOverhead
	if got := CountMessageTokens(content); got != expected {
		t.Errorf("CountMessageTokens(%q) = %d, want %d", content, got, expected)
	}
}
