package handlers

import (
	"log"

	"disha/internal/services"

	"github.com/gofiber/fiber/v2"
)

// waWebhookPayload mirrors the Cloud API webhook envelope, trimmed to the
// fields we consume
type waWebhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []struct {
					From string `json:"from"`
					Type string `json:"type"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
					Interactive struct {
						Type        string `json:"type"`
						ButtonReply struct {
							Title string `json:"title"`
						} `json:"button_reply"`
					} `json:"interactive"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// WhatsAppWebhookHandler bridges the WhatsApp channel into the turn pipeline
type WhatsAppWebhookHandler struct {
	orchestrator *services.ChatOrchestrator
	whatsapp     *services.WhatsAppService
	verifyToken  string
}

// NewWhatsAppWebhookHandler creates a new webhook handler
func NewWhatsAppWebhookHandler(orchestrator *services.ChatOrchestrator, whatsapp *services.WhatsAppService, verifyToken string) *WhatsAppWebhookHandler {
	return &WhatsAppWebhookHandler{
		orchestrator: orchestrator,
		whatsapp:     whatsapp,
		verifyToken:  verifyToken,
	}
}

// Verify handles the Meta webhook verification handshake (GET)
func (h *WhatsAppWebhookHandler) Verify(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		log.Println("✅ WhatsApp webhook verified")
		return c.SendString(challenge)
	}

	log.Println("⚠️ WhatsApp webhook verification failed")
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"error": "Verification token mismatch",
	})
}

// Receive handles incoming WhatsApp messages (POST). Meta retries non-200
// responses aggressively, so processing errors still return 200.
func (h *WhatsAppWebhookHandler) Receive(c *fiber.Ctx) error {
	var payload waWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("⚠️ Failed to parse WhatsApp webhook: %v", err)
		return c.JSON(fiber.Map{"status": "ignored"})
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, message := range change.Value.Messages {
				waID := message.From

				text := ""
				switch message.Type {
				case "text":
					text = message.Text.Body
				case "interactive":
					if message.Interactive.Type == "button_reply" {
						text = message.Interactive.ButtonReply.Title
					}
				}

				if waID == "" || text == "" {
					continue
				}

				_, assistantMsg, err := h.orchestrator.ProcessMessage(c.Context(), waID, text)
				if err != nil {
					log.Printf("❌ WhatsApp turn failed for %s: %v", waID, err)
					if sendErr := h.whatsapp.SendText(c.Context(), waID, "Sorry, I'm having trouble responding right now. Please try again."); sendErr != nil {
						log.Printf("⚠️ WhatsApp fallback send failed: %v", sendErr)
					}
					continue
				}

				if err := h.whatsapp.SendInteractiveButtons(c.Context(), waID, assistantMsg.Content, assistantMsg.Options); err != nil {
					log.Printf("⚠️ WhatsApp send failed for %s: %v", waID, err)
				}
			}
		}
	}

	return c.JSON(fiber.Map{"status": "success"})
}
