package handlers

import (
	"errors"
	"log"

	"disha/internal/models"
	"disha/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UserHandler serves user profile endpoints
type UserHandler struct {
	users    *services.UserService
	memories *services.MemoryService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *services.UserService, memories *services.MemoryService) *UserHandler {
	return &UserHandler{
		users:    users,
		memories: memories,
	}
}

// CreateUser handles POST /api/users: starts a fresh session identity
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	userID := uuid.New().String()

	user, err := h.users.GetOrCreate(c.Context(), userID)
	if err != nil {
		log.Printf("❌ Create user error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create user",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(user.ToResponse())
}

// GetUser handles GET /api/users/:userID
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	userID := c.Params("userID")

	user, err := h.users.GetByID(c.Context(), userID)
	if errors.Is(err, services.ErrUserNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	if err != nil {
		log.Printf("❌ Get user error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load user",
		})
	}

	if err := h.users.TouchLastActive(c.Context(), userID); err != nil {
		log.Printf("⚠️ Failed to touch last active for %s: %v", userID, err)
	}

	return c.JSON(user.ToResponse())
}

// UpdateUser handles PATCH /api/users/:userID: partial profile update
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	userID := c.Params("userID")

	var req models.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if _, err := h.users.GetByID(c.Context(), userID); errors.Is(err, services.ErrUserNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	} else if err != nil {
		log.Printf("❌ Update user error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update user",
		})
	}

	user, err := h.users.Update(c.Context(), userID, &req)
	if err != nil {
		log.Printf("❌ Update user error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update user",
		})
	}

	return c.JSON(user.ToResponse())
}

// GetUserMemories handles GET /api/users/:userID/memories
func (h *UserHandler) GetUserMemories(c *fiber.Ctx) error {
	userID := c.Params("userID")

	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var categories []string
	if category := c.Query("category"); category != "" {
		categories = []string{category}
	}

	memories, err := h.memories.GetUserMemories(c.Context(), userID, categories, limit)
	if err != nil {
		log.Printf("❌ Get memories error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load memories",
		})
	}

	return c.JSON(fiber.Map{
		"memories": memories,
		"count":    len(memories),
	})
}

// ClearUserMemories handles DELETE /api/users/:userID/memories (soft delete)
func (h *UserHandler) ClearUserMemories(c *fiber.Ctx) error {
	userID := c.Params("userID")

	cleared, err := h.memories.ClearUserMemories(c.Context(), userID)
	if err != nil {
		log.Printf("❌ Clear memories error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to clear memories",
		})
	}

	return c.JSON(fiber.Map{
		"cleared": cleared,
	})
}
