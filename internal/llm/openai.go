package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"disha/internal/config"
)

// OpenAIProvider speaks the OpenAI-compatible chat completions API.
// It works against api.openai.com or any gateway exposing the same shape.
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewOpenAIProvider creates a provider from configuration
func NewOpenAIProvider(cfg *config.Config) *OpenAIProvider {
	timeout := time.Duration(cfg.LLMTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIProvider{
		apiKey:  cfg.OpenAIAPIKey,
		baseURL: strings.TrimRight(cfg.OpenAIBaseURL, "/"),
		model:   cfg.OpenAIModel,
		client:  &http.Client{Timeout: timeout},
	}
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Model string `json:"model"`
}

// Generate runs one chat completion against the configured endpoint
func (p *OpenAIProvider) Generate(ctx context.Context, messages []ChatMessage, temperature float64, maxTokens int) (*Response, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("LLM request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read LLM response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("LLM returned status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	model := parsed.Model
	if model == "" {
		model = p.model
	}

	return &Response{
		Content:      parsed.Choices[0].Message.Content,
		TokensUsed:   parsed.Usage.TotalTokens,
		Model:        model,
		FinishReason: parsed.Choices[0].FinishReason,
	}, nil
}

// CountTokens estimates token usage with the ~4 chars per token heuristic.
// Good enough for budgeting; never used for billing.
func (p *OpenAIProvider) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// ModelName returns the configured model identifier
func (p *OpenAIProvider) ModelName() string {
	return p.model
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
