package handlers

import (
	"log"
	"strings"

	"disha/internal/models"
	"disha/internal/services"

	"github.com/gofiber/fiber/v2"
)

// maxMessageLength caps inbound turn text
const maxMessageLength = 5000

// ChatHandler serves the chat turn and history endpoints
type ChatHandler struct {
	orchestrator *services.ChatOrchestrator
	users        *services.UserService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(orchestrator *services.ChatOrchestrator, users *services.UserService) *ChatHandler {
	return &ChatHandler{
		orchestrator: orchestrator,
		users:        users,
	}
}

// SendMessage handles POST /api/messages: one full chat turn
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	var req models.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id is required",
		})
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message content cannot be empty",
		})
	}
	if len(content) > maxMessageLength {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message too long. Please keep messages under 5000 characters.",
		})
	}

	userMsg, assistantMsg, err := h.orchestrator.ProcessMessage(c.Context(), req.UserID, content)
	if err != nil {
		log.Printf("❌ Chat error for user %s: %v", req.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Sorry, I'm having trouble responding right now. Please try again.",
		})
	}

	onboardingComplete := false
	if user, err := h.users.GetByID(c.Context(), req.UserID); err == nil {
		onboardingComplete = user.Onboarding.Completed
	}

	return c.JSON(models.ChatTurnResponse{
		UserMessage:        *userMsg,
		AssistantMessage:   *assistantMsg,
		OnboardingComplete: onboardingComplete,
	})
}

// GetMessages handles GET /api/messages: cursor-paginated history
func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id is required",
		})
	}

	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	resp, err := h.orchestrator.GetMessagesPaginated(c.Context(), userID, c.Query("before"), limit)
	if err != nil {
		log.Printf("❌ Get messages error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load messages",
		})
	}

	return c.JSON(resp)
}

// GetLatestMessages handles GET /api/messages/latest: initial page load
func (h *ChatHandler) GetLatestMessages(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id is required",
		})
	}

	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 100 {
		limit = 50
	}

	messages, err := h.orchestrator.GetLatestMessages(c.Context(), userID, limit)
	if err != nil {
		log.Printf("❌ Get latest messages error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load messages",
		})
	}

	resp := models.MessageListResponse{
		Messages: messages,
		HasMore:  len(messages) >= limit,
	}
	if len(messages) > 0 && resp.HasMore {
		resp.NextCursor = messages[0].ID.Hex()
	}

	return c.JSON(resp)
}
