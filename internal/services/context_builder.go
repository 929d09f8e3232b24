package services

import (
	"fmt"
	"log"

	"disha/internal/llm"
	"disha/internal/models"
)

// responseReserveTokens is held back from the budget for the model's reply
const responseReserveTokens = 500

const systemPromptTemplate = `You are Disha, a warm, caring, and professional AI health coach from Curelink, India's leading AI-powered health platform.

## Your Professional Persona
- You act as a knowledgeable health guide (Nutritionist, Fitness Coach, or Lifestyle Expert).
- **HINGLISH SUPPORT**: You primarily speak English but can naturally understand and use Hindi/Hinglish (e.g., "aap kaise hain?", "thoda exercise karein"). Use common Indian terms where appropriate.
- **DIAGNOSTICS FIRST**: Before providing solutions, ensure you have all relevant context (e.g., current activity, medical history, dietary habits).
- **CHECK PROFILE**: Look at "## About This User (Profile)" section below. If a piece of information (like name, age, weight) is already present there, DO NOT ask for it again.
- Communicate like a helpful, empathetic friend on WhatsApp - warm, personal, and encouraging.
- Use casual language with occasional emojis to keep the conversation light 😊
- Keep responses concise (2-3 short paragraphs max).

## ⚠️ SAFETY & MEDICAL GUIDELINES
- **IMPORTANT**: If a user mentions emergency symptoms (e.g., severe chest pain, difficulty breathing, fainting, heavy bleeding, or thoughts of self-harm), IMMEDIATELY stop giving advice and say: "I am an AI coach, not a doctor. This sounds like an emergency. Please visit the nearest hospital or call an ambulance (102/108) immediately."
- **DISCLAIMER**: Include a medical disclaimer ONLY at the start of a conversation or when providing specific health/diet recommendations. Do not repeat it in every message.
- NEVER suggest specific prescription medications.
- In an Indian context, you can suggest mild home remedies (like kadha, ginger-honey for cold) but always as a supplement to professional advice.

## Quick Replies (CTAs)
- You can provide interactive buttons (Quick Replies) to help the user choose paths.
- To add a button, append it at the end of your message in the format: [CTA: Option Name]
- Example: "Should we start with your diet or workout? [CTA: Diet Plan] [CTA: Workout Routine]"
- **Only use CTAs when there are clear options for the user to pick from.**
%s
%s
%s`

// ContextBuilder assembles the ordered message list for the model within the
// configured token budget
type ContextBuilder struct {
	maxTokens int
}

// NewContextBuilder creates a builder with the given context token ceiling
func NewContextBuilder(maxTokens int) *ContextBuilder {
	if maxTokens <= 0 {
		maxTokens = 8000
	}
	return &ContextBuilder{maxTokens: maxTokens}
}

// BuildSystemPrompt renders the persona prompt with the three optional
// context sections. Each section is omitted entirely when empty.
func (b *ContextBuilder) BuildSystemPrompt(user *models.User, memoriesContext, protocolsContext string) string {
	profileSection := ""
	if user != nil {
		if profile := user.ProfileSummary(); profile != "" {
			profileSection = fmt.Sprintf("\n## About This User (Profile)\n%s", profile)
		}
	}

	memoriesSection := ""
	if memoriesContext != "" {
		memoriesSection = fmt.Sprintf("\n## What I Remember About This User (Long-term Memory)\n%s", memoriesContext)
	}

	return fmt.Sprintf(systemPromptTemplate, profileSection, memoriesSection, protocolsContext)
}

// OnboardingInstruction returns the task instruction appended to the system
// prompt for a given onboarding step
func (b *ContextBuilder) OnboardingInstruction(step int) string {
	var prompt string
	switch step {
	case models.StepNotStarted:
		prompt = "Goal: Greet the user warmly and ask for their name only. Use Hinglish and a friendly, welcoming tone."
	case models.StepNameCollected:
		prompt = "Goal: We are missing the user's name. Ask for their name in a friendly way. If they already gave it, move to asking for gender."
	case models.StepGenderCollected:
		prompt = "Goal: We have the user's name. Thank them and ask for their gender. Provide CTAs: [CTA: Male] [CTA: Female] [CTA: Other]"
	case models.StepAgeCollected:
		prompt = "Goal: We have name and gender. Now ask for their age in a casual, non-intrusive way."
	case models.StepGoalsCollected:
		prompt = "Goal: We have basic details. Ask about their main health goal (e.g., weight loss, muscle gain, fitness). Provide CTAs for common goals AND include [CTA: Other]. If the user selects Other or provides no clear goal, ask them to type their specific goal (e.g., 'tummy fat kam karna', 'LDL kam karna', 'fit rehna hai')."
	case models.StepDiagnosticCollected:
		prompt = "Goal: We need weight (kg) and height (cm) to provide accurate health guidance. Ask for both clearly."
	case models.StepCompleted:
		prompt = "Goal: Onboarding complete. Give a warm final welcome and let them know you're ready to help with their specific goals."
	default:
		return ""
	}

	return fmt.Sprintf("\n\n## CURRENT TASK\n%s", prompt)
}

// BuildMessages assembles [system] + history window + [current turn] within
// the token budget. History is selected newest first and reversed back to
// chronological order, so the most recent turns survive truncation.
func (b *ContextBuilder) BuildMessages(systemPrompt string, history []models.Message, currentMessage string) []llm.ChatMessage {
	messages := []llm.ChatMessage{{Role: models.RoleSystem, Content: systemPrompt}}

	remaining := b.maxTokens - CountTokens(systemPrompt) - responseReserveTokens
	if currentMessage != "" {
		remaining -= CountTokens(currentMessage)
	}

	var window []llm.ChatMessage
	historyTokens := 0
	for i := len(history) - 1; i >= 0; i-- {
		cost := CountMessageTokens(history[i].Content)
		if historyTokens+cost > remaining {
			log.Printf("🪟 Sliding window: truncated history at %d messages", len(window))
			break
		}
		window = append(window, llm.ChatMessage{Role: history[i].Role, Content: history[i].Content})
		historyTokens += cost
	}

	for i, j := 0, len(window)-1; i < j; i, j = i+1, j-1 {
		window[i], window[j] = window[j], window[i]
	}
	messages = append(messages, window...)

	if currentMessage != "" {
		messages = append(messages, llm.ChatMessage{Role: models.RoleUser, Content: currentMessage})
	}

	return messages
}

// EstimateTokens estimates the total cost of a prompt and history
func (b *ContextBuilder) EstimateTokens(systemPrompt string, history []models.Message) int {
	total := CountTokens(systemPrompt)
	for _, msg := range history {
		total += CountMessageTokens(msg.Content)
	}
	return total
}

// MaxTokens returns the configured ceiling
func (b *ContextBuilder) MaxTokens() int {
	return b.maxTokens
}
