package handlers

import (
	"context"
	"time"

	"disha/internal/database"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	db *database.MongoDB
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.MongoDB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Liveness handles GET /health
func (h *HealthHandler) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// Readiness handles GET /health/ready: verifies the database is reachable
func (h *HealthHandler) Readiness(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "degraded",
			"error":  "database unreachable",
		})
	}

	return c.JSON(fiber.Map{
		"status": "ready",
	})
}
