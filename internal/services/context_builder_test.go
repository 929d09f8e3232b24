package services

import (
	"strings"
	"testing"

	"disha/internal/models"
)

func TestBuildSystemPromptSections(t *testing.T) {
	b := NewContextBuilder(8000)

	user := &models.User{Name: "Priya", Age: 28, Gender: "female"}
	prompt := b.BuildSystemPrompt(user, "- Vegetarian", "## Diabetes Care\nMonitor sugar.")

	if !strings.Contains(prompt, "## About This User (Profile)") {
		t.Error("Expected profile section")
	}
	if !strings.Contains(prompt, "Priya") {
		t.Error("Expected profile to include the user's name")
	}
	if !strings.Contains(prompt, "## What I Remember About This User (Long-term Memory)") {
		t.Error("Expected memory section")
	}
	if !strings.Contains(prompt, "- Vegetarian") {
		t.Error("Expected memory content")
	}
	if !strings.Contains(prompt, "## Diabetes Care") {
		t.Error("Expected protocol section")
	}
}

func TestBuildSystemPromptOmitsEmptySections(t *testing.T) {
	b := NewContextBuilder(8000)

	prompt := b.BuildSystemPrompt(nil, "", "")

	if strings.Contains(prompt, "## About This User (Profile)") {
		t.Error("Expected no profile section for nil user")
	}
	if strings.Contains(prompt, "## What I Remember About This User") {
		t.Error("Expected no memory section when empty")
	}
	if !strings.Contains(prompt, "You are Disha") {
		t.Error("Expected persona prompt to always be present")
	}
}

func TestOnboardingInstruction(t *testing.T) {
	b := NewContextBuilder(8000)

	tests := []struct {
		name     string
		step     int
		expected string
	}{
		{name: "Not started greets and asks name", step: models.StepNotStarted, expected: "ask for their name"},
		{name: "Missing name", step: models.StepNameCollected, expected: "missing the user's name"},
		{name: "Gender with CTAs", step: models.StepGenderCollected, expected: "[CTA: Male] [CTA: Female] [CTA: Other]"},
		{name: "Age", step: models.StepAgeCollected, expected: "ask for their age"},
		{name: "Goals", step: models.StepGoalsCollected, expected: "main health goal"},
		{name: "Body metrics", step: models.StepDiagnosticCollected, expected: "weight (kg) and height (cm)"},
		{name: "Completed", step: models.StepCompleted, expected: "Onboarding complete"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.OnboardingInstruction(tt.step)
			if !strings.Contains(got, "## CURRENT TASK") {
				t.Error("Expected instruction header")
			}
			if !strings.Contains(got, tt.expected) {
				t.Errorf("Expected instruction for step %d to contain %q, got: %s", tt.step, tt.expected, got)
			}
		})
	}

	if got := b.OnboardingInstruction(99); got != "" {
		t.Errorf("Expected empty instruction for unknown step, got: %s", got)
	}
}

func TestBuildMessagesOrdering(t *testing.T) {
	b := NewContextBuilder(8000)

	history := []models.Message{
		{Role: models.RoleUser, Content: "hello"},
		{Role: models.RoleAssistant, Content: "hi there"},
		{Role: models.RoleUser, Content: "how are you"},
	}

	messages := b.BuildMessages("system prompt", history, "current question")

	if len(messages) != 5 {
		t.Fatalf("Expected 5 messages, got %d", len(messages))
	}
	if messages[0].Role != models.RoleSystem {
		t.Errorf("Expected system first, got %s", messages[0].Role)
	}
	if messages[1].Content != "hello" || messages[3].Content != "how are you" {
		t.Error("Expected history in chronological order")
	}
	last := messages[len(messages)-1]
	if last.Role != models.RoleUser || last.Content != "current question" {
		t.Errorf("Expected current turn last, got %s: %q", last.Role, last.Content)
	}
}

func TestBuildMessagesDropsOldestFirst(t *testing.T) {
	// Budget fits the system prompt, the reserve and roughly one history turn
	b := NewContextBuilder(responseReserveTokens + 40)

	history := []models.Message{
		{Role: models.RoleUser, Content: strings.Repeat("old ", 60)},
		{Role: models.RoleAssistant, Content: "recent reply"},
	}

	messages := b.BuildMessages("sys", history, "now")

	for _, m := range messages {
		if strings.Contains(m.Content, "old") {
			t.Errorf("Expected oldest message to be dropped, found: %q", m.Content)
		}
	}

	found := false
	for _, m := range messages {
		if m.Content == "recent reply" {
			found = true
		}
	}
	if !found {
		t.Error("Expected most recent history message to survive")
	}
}

func TestBuildMessagesNeverExceedsBudget(t *testing.T) {
	maxTokens := responseReserveTokens + 100
	b := NewContextBuilder(maxTokens)

	var history []models.Message
	for i := 0; i < 50; i++ {
		history = append(history, models.Message{Role: models.RoleUser, Content: strings.Repeat("word ", 30)})
	}

	messages := b.BuildMessages("sys", history, "current")

	total := 0
	for _, m := range messages {
		total += CountMessageTokens(m.Content)
	}
	if total > maxTokens-responseReserveTokens {
		t.Errorf("Context of %d tokens exceeds usable budget %d", total, maxTokens-responseReserveTokens)
	}
}

func TestBuildMessagesWithoutCurrentMessage(t *testing.T) {
	b := NewContextBuilder(8000)

	history := []models.Message{{Role: models.RoleUser, Content: "hello"}}
	messages := b.BuildMessages("sys", history, "")

	last := messages[len(messages)-1]
	if last.Content != "hello" {
		t.Errorf("Expected history to be last when no current message, got %q", last.Content)
	}
}
