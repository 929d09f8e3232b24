package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"disha/internal/llm"
	"disha/internal/logging"
	"disha/internal/models"
)

// llmTemperature is the sampling temperature for user-facing replies
const llmTemperature = 0.7

// ctaPattern captures inline quick-reply markers in generated text
var ctaPattern = regexp.MustCompile(`\[CTA: (.*?)\]`)

// emergencyKeywords short-circuit the whole pipeline to a safety referral
var emergencyKeywords = []string{
	"chest pain", "difficulty breathing", "heart attack", "stroke",
	"unconscious", "heavy bleeding", "suicide", "self-harm", "kill myself",
	"poison", "emergency", "ambulance", "accident",
}

const emergencyResponse = "🚨 **EMERGENCY NOTICE** 🚨\n\n" +
	"I am an AI coach, not a doctor. This sounds like a medical emergency. " +
	"Please stop using this chat and immediately:\n" +
	"1. **Call 102 or 108** (Ambulance) in India.\n" +
	"2. Visit the **nearest hospital emergency room**.\n" +
	"3. Contact a family member or friend.\n\n" +
	"Your safety is the priority. Please get professional help now."

// ChatOrchestrator drives one conversational turn: emergency interception,
// onboarding vs free-chat branching, context assembly, response
// post-processing, and persistence side effects. All collaborators are
// injected; the orchestrator holds no global state.
type ChatOrchestrator struct {
	users      *UserService
	messages   *MessageService
	onboarding *OnboardingService
	memories   *MemoryService
	protocols  *ProtocolService
	builder    *ContextBuilder
	provider   llm.Provider
	conns      *ConnectionManager
	metrics    *Metrics
}

// NewChatOrchestrator wires the turn pipeline
func NewChatOrchestrator(
	users *UserService,
	messages *MessageService,
	onboarding *OnboardingService,
	memories *MemoryService,
	protocols *ProtocolService,
	builder *ContextBuilder,
	provider llm.Provider,
	conns *ConnectionManager,
	metrics *Metrics,
) *ChatOrchestrator {
	return &ChatOrchestrator{
		users:      users,
		messages:   messages,
		onboarding: onboarding,
		memories:   memories,
		protocols:  protocols,
		builder:    builder,
		provider:   provider,
		conns:      conns,
		metrics:    metrics,
	}
}

// ProcessMessage handles one inbound turn and returns both persisted sides.
// A gateway failure is propagated without persisting an assistant turn; the
// caller substitutes a generic retry reply.
func (o *ChatOrchestrator) ProcessMessage(ctx context.Context, userID, content string) (*models.Message, *models.Message, error) {
	start := time.Now()

	// Emergency keywords bypass everything, including profile lookup
	if isEmergency(content) {
		o.metrics.EmergencyTurns.Inc()
		o.metrics.TurnsProcessed.WithLabelValues("emergency").Inc()

		userMsg, err := o.messages.Save(ctx, userID, models.RoleUser, content, nil, models.MessageMetadata{})
		if err != nil {
			return nil, nil, err
		}
		assistantMsg, err := o.messages.Save(ctx, userID, models.RoleAssistant, emergencyResponse, nil, models.MessageMetadata{})
		if err != nil {
			return nil, nil, err
		}
		return userMsg, assistantMsg, nil
	}

	user, err := o.users.GetOrCreate(ctx, userID)
	if err != nil {
		o.metrics.TurnErrors.WithLabelValues("persistence").Inc()
		return nil, nil, err
	}

	userMsg, err := o.messages.Save(ctx, userID, models.RoleUser, content, nil, models.MessageMetadata{})
	if err != nil {
		o.metrics.TurnErrors.WithLabelValues("persistence").Inc()
		return nil, nil, err
	}

	o.conns.SendTyping(userID, true)
	defer o.conns.SendTyping(userID, false)

	var responseContent, protocolMatched string
	var options []string

	// Extraction eligibility uses the pre-turn state: the turn that finishes
	// onboarding is itself still an onboarding turn
	extractEligible := user.Onboarding.Completed

	branch := "chat"
	if !user.Onboarding.Completed {
		branch = "onboarding"
		responseContent, options, err = o.handleOnboarding(ctx, user, content)
		o.metrics.TurnsProcessed.WithLabelValues("onboarding").Inc()
	} else {
		responseContent, protocolMatched, options, err = o.handleChat(ctx, user, content)
		o.metrics.TurnsProcessed.WithLabelValues("chat").Inc()
	}
	if err != nil {
		o.metrics.TurnErrors.WithLabelValues("gateway").Inc()
		return nil, nil, err
	}

	responseTimeMs := int(time.Since(start).Milliseconds())

	assistantMsg, err := o.messages.Save(ctx, userID, models.RoleAssistant, responseContent, options, models.MessageMetadata{
		ProtocolMatched: protocolMatched,
		ResponseTimeMs:  responseTimeMs,
		ModelUsed:       o.provider.ModelName(),
	})
	if err != nil {
		o.metrics.TurnErrors.WithLabelValues("persistence").Inc()
		return nil, nil, err
	}

	// Memory extraction runs off the reply path; its failures never reach
	// the caller
	if extractEligible && len(content) > minExtractionLength {
		go o.extractMemories(userID, content, responseContent, userMsg.ID.Hex(), assistantMsg)
	}

	if err := o.users.TouchLastActive(ctx, userID); err != nil {
		log.Printf("⚠️ Failed to touch last active for %s: %v", userID, err)
	}

	o.metrics.TurnLatency.Observe(time.Since(start).Seconds())

	logging.WithTurn(userMsg.ID.Hex(), userID, branch).Info("turn completed",
		"latency_ms", responseTimeMs,
		"protocol", protocolMatched,
	)

	return userMsg, assistantMsg, nil
}

// handleOnboarding runs the state machine and builds the step-specific reply
func (o *ChatOrchestrator) handleOnboarding(ctx context.Context, user *models.User, input string) (string, []string, error) {
	currentStep := user.Onboarding.CurrentStep

	success, updated, err := o.onboarding.ApplyTurn(ctx, user, input)
	if err != nil {
		return "", nil, err
	}

	switch {
	case updated.Onboarding.Completed:
		o.metrics.OnboardingSteps.WithLabelValues("completed").Inc()
	case success:
		o.metrics.OnboardingSteps.WithLabelValues("advanced").Inc()
	default:
		o.metrics.OnboardingSteps.WithLabelValues("retried").Inc()
	}

	systemPrompt := o.builder.BuildSystemPrompt(updated, "", "")

	instructionStep := updated.Onboarding.CurrentStep
	if updated.Name == "" {
		// Without a name nothing else can proceed
		instructionStep = models.StepNameCollected
	}

	instruction := o.builder.OnboardingInstruction(instructionStep)
	if !success && currentStep > 0 && instructionStep == currentStep {
		instruction += fmt.Sprintf("\n\n**IMPORTANT**: The user's response was: %q. This did NOT contain the required information for the current step. Acknowledge what they said (if relevant) but politely ask for the missing details again.", input)
	} else {
		instruction += fmt.Sprintf("\n\n**CONTEXT**: The user's last message was: %q. Move the conversation forward naturally based on the latest user profile and the current onboarding step instructions above.", input)
	}

	history, err := o.messages.GetRecent(ctx, user.UserID, 10)
	if err != nil {
		return "", nil, err
	}

	currentMessage := ""
	if currentStep > 0 {
		currentMessage = input
	}
	messages := o.builder.BuildMessages(systemPrompt+instruction, history, currentMessage)

	response, err := o.provider.Generate(ctx, messages, llmTemperature, 0)
	if err != nil {
		return "", nil, err
	}

	content, options := ExtractCTAs(response.Content)
	return content, options, nil
}

// handleChat runs the free-chat branch with memory and protocol context
func (o *ChatOrchestrator) handleChat(ctx context.Context, user *models.User, input string) (string, string, []string, error) {
	memoriesContext, err := o.memories.MemoriesContext(ctx, user.UserID)
	if err != nil {
		return "", "", nil, err
	}

	protocolsContext, err := o.protocols.Context(ctx, input, DefaultMaxMatches)
	if err != nil {
		return "", "", nil, err
	}

	protocolMatched := ""
	if matched, err := o.protocols.Match(ctx, input, "", 1); err == nil && len(matched) > 0 {
		protocolMatched = matched[0].Name
		o.metrics.ProtocolMatches.WithLabelValues(protocolMatched).Inc()
	}

	systemPrompt := o.builder.BuildSystemPrompt(user, memoriesContext, protocolsContext)

	history, err := o.messages.GetRecent(ctx, user.UserID, 50)
	if err != nil {
		return "", "", nil, err
	}

	messages := o.builder.BuildMessages(systemPrompt, history, input)

	response, err := o.provider.Generate(ctx, messages, llmTemperature, 0)
	if err != nil {
		return "", "", nil, err
	}

	content, options := ExtractCTAs(response.Content)
	return content, protocolMatched, options, nil
}

// extractMemories runs async fact extraction for a finished turn and stamps
// the count on the assistant message once. Failures are logged and swallowed.
func (o *ChatOrchestrator) extractMemories(userID, userContent, assistantContent, sourceMessageID string, assistantMsg *models.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	count, duplicates, err := o.memories.ExtractAndStore(ctx, userID, userContent, assistantContent, sourceMessageID)
	if err != nil {
		log.Printf("⚠️ Memory extraction failed for user %s: %v", userID, err)
		return
	}

	if duplicates > 0 {
		o.metrics.MemoriesDeduped.Add(float64(duplicates))
	}
	if count > 0 {
		o.metrics.MemoriesExtracted.Add(float64(count))
		if err := o.messages.SetMemoriesExtracted(ctx, assistantMsg.ID, count); err != nil {
			log.Printf("⚠️ Failed to stamp extraction count: %v", err)
		}
	}
}

// ExtractCTAs pulls [CTA: label] markers out of generated text, returning
// the cleaned text and the ordered option labels
func ExtractCTAs(content string) (string, []string) {
	matches := ctaPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return content, nil
	}

	options := make([]string, 0, len(matches))
	for _, m := range matches {
		options = append(options, strings.TrimSpace(m[1]))
	}

	cleaned := strings.TrimSpace(ctaPattern.ReplaceAllString(content, ""))
	return cleaned, options
}

func isEmergency(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range emergencyKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// GetMessagesPaginated exposes cursor-based history reads
func (o *ChatOrchestrator) GetMessagesPaginated(ctx context.Context, userID, beforeID string, limit int) (*models.MessageListResponse, error) {
	return o.messages.GetPaginated(ctx, userID, beforeID, limit)
}

// GetLatestMessages exposes the most recent history window
func (o *ChatOrchestrator) GetLatestMessages(ctx context.Context, userID string, limit int) ([]models.Message, error) {
	return o.messages.GetLatest(ctx, userID, limit)
}
