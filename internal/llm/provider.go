package llm

import (
	"context"
	"fmt"

	"disha/internal/config"
)

// ChatMessage is one turn handed to the model
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Response is the provider-agnostic completion result
type Response struct {
	Content      string
	TokensUsed   int
	Model        string
	FinishReason string
}

// Provider abstracts the LLM gateway so the pipeline never depends on a
// concrete vendor API. Implementations must be safe for concurrent use.
type Provider interface {
	// Generate runs one chat completion
	Generate(ctx context.Context, messages []ChatMessage, temperature float64, maxTokens int) (*Response, error)

	// CountTokens estimates the token cost of a text for budgeting
	CountTokens(text string) int

	// ModelName returns the configured model identifier
	ModelName() string
}

// NewProvider builds the provider selected by configuration
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.LLMProvider {
	case "openai", "":
		return NewOpenAIProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.LLMProvider)
	}
}
