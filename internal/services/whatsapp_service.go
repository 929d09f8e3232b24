package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// waButtonTitleLimit is the Cloud API cap on quick-reply button titles
const waButtonTitleLimit = 20

// waMaxButtons is the Cloud API cap on quick-reply buttons per message
const waMaxButtons = 3

// WhatsAppService delivers outbound messages via the Meta Graph API.
// Delivery is fire-and-forget from the pipeline's perspective.
type WhatsAppService struct {
	accessToken string
	baseURL     string
	client      *http.Client
}

// NewWhatsAppService creates a sender bound to one business phone number
func NewWhatsAppService(accessToken, phoneNumberID string) *WhatsAppService {
	log.Printf("📱 WhatsApp service initialized with phone ID: %s", phoneNumberID)
	return &WhatsAppService{
		accessToken: accessToken,
		baseURL:     fmt.Sprintf("https://graph.facebook.com/v22.0/%s", phoneNumberID),
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

// SendText sends a simple text message
func (s *WhatsAppService) SendText(ctx context.Context, to, text string) error {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": text},
	}
	return s.send(ctx, payload)
}

// SendInteractiveButtons sends a message with quick-reply buttons. At most
// 3 buttons are forwarded and titles are truncated to the transport limit.
// Without buttons it falls back to a plain text message.
func (s *WhatsAppService) SendInteractiveButtons(ctx context.Context, to, text string, buttons []string) error {
	if len(buttons) == 0 {
		return s.SendText(ctx, to, text)
	}

	if len(buttons) > waMaxButtons {
		buttons = buttons[:waMaxButtons]
	}

	buttonObjs := make([]map[string]interface{}, 0, len(buttons))
	for i, title := range buttons {
		if len(title) > waButtonTitleLimit {
			title = title[:waButtonTitleLimit]
		}
		buttonObjs = append(buttonObjs, map[string]interface{}{
			"type": "reply",
			"reply": map[string]string{
				"id":    fmt.Sprintf("btn_%d", i),
				"title": title,
			},
		})
	}

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
		"type":              "interactive",
		"interactive": map[string]interface{}{
			"type": "button",
			"body": map[string]string{"text": text},
			"action": map[string]interface{}{
				"buttons": buttonObjs,
			},
		},
	}
	return s.send(ctx, payload)
}

func (s *WhatsAppService) send(ctx context.Context, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode WhatsApp payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build WhatsApp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("WhatsApp request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		body := string(raw)
		if len(body) > 200 {
			body = body[:200] + "..."
		}
		return fmt.Errorf("WhatsApp API returned status %d: %s", resp.StatusCode, body)
	}

	return nil
}
