package handlers

import (
	"errors"
	"log"
	"strings"

	"disha/internal/models"
	"disha/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProtocolHandler serves the health protocol catalog endpoints
type ProtocolHandler struct {
	protocols *services.ProtocolService
}

// NewProtocolHandler creates a new protocol handler
func NewProtocolHandler(protocols *services.ProtocolService) *ProtocolHandler {
	return &ProtocolHandler{protocols: protocols}
}

// ListProtocols handles GET /api/protocols
func (h *ProtocolHandler) ListProtocols(c *fiber.Ctx) error {
	protocols, err := h.protocols.GetAll(c.Context())
	if err != nil {
		log.Printf("❌ List protocols error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load protocols",
		})
	}

	return c.JSON(fiber.Map{
		"protocols": protocols,
		"count":     len(protocols),
	})
}

// GetProtocol handles GET /api/protocols/:name
func (h *ProtocolHandler) GetProtocol(c *fiber.Ctx) error {
	protocol, err := h.protocols.GetByName(c.Context(), c.Params("name"))
	if errors.Is(err, services.ErrProtocolNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Protocol not found",
		})
	}
	if err != nil {
		log.Printf("❌ Get protocol error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load protocol",
		})
	}

	return c.JSON(protocol)
}

// MatchProtocols handles GET /api/protocols/match?q=...: debugging aid for
// the keyword matcher
func (h *ProtocolHandler) MatchProtocols(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "q is required",
		})
	}

	maxMatches := c.QueryInt("limit", services.DefaultMaxMatches)
	matches, err := h.protocols.Match(c.Context(), query, c.Query("category"), maxMatches)
	if err != nil {
		log.Printf("❌ Match protocols error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to match protocols",
		})
	}

	return c.JSON(fiber.Map{
		"matches": matches,
		"count":   len(matches),
	})
}

// RefreshProtocols handles POST /api/protocols/refresh: drops the catalog
// cache and reloads it
func (h *ProtocolHandler) RefreshProtocols(c *fiber.Ctx) error {
	h.protocols.Invalidate()

	protocols, err := h.protocols.GetAll(c.Context())
	if err != nil {
		log.Printf("❌ Refresh protocols error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to refresh protocols",
		})
	}

	return c.JSON(fiber.Map{
		"status": "refreshed",
		"count":  len(protocols),
	})
}

// UpsertProtocol handles PUT /api/protocols/:name
func (h *ProtocolHandler) UpsertProtocol(c *fiber.Ctx) error {
	var protocol models.Protocol
	if err := c.BodyParser(&protocol); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	protocol.Name = c.Params("name")
	if protocol.Name == "" || protocol.DisplayName == "" || protocol.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name, display_name and content are required",
		})
	}
	protocol.Active = true

	if err := h.protocols.Upsert(c.Context(), &protocol); err != nil {
		log.Printf("❌ Upsert protocol error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save protocol",
		})
	}

	return c.JSON(protocol)
}

// DeactivateProtocol handles DELETE /api/protocols/:name (soft delete)
func (h *ProtocolHandler) DeactivateProtocol(c *fiber.Ctx) error {
	err := h.protocols.Deactivate(c.Context(), c.Params("name"))
	if errors.Is(err, services.ErrProtocolNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Protocol not found",
		})
	}
	if err != nil {
		log.Printf("❌ Deactivate protocol error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to deactivate protocol",
		})
	}

	return c.JSON(fiber.Map{"status": "deactivated"})
}
