package http

import (
	"errors"

	"meetbot_server/core/domain"
	"meetbot_server/core/port/in"
	"meetbot_server/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// WebhookHandler receives Twilio WhatsApp form posts and runs one dialog
// turn per message.
type WebhookHandler struct {
	conversation in.ConversationService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(conversation in.ConversationService) *WebhookHandler {
	return &WebhookHandler{conversation: conversation}
}

func (h *WebhookHandler) Register(app fiber.Router) {
	app.Post("/webhook", h.Inbound)
}

// Inbound handles one Twilio message webhook. The reply is always TwiML so
// Twilio relays it back to the sender.
func (h *WebhookHandler) Inbound(c *fiber.Ctx) error {
	from := c.FormValue("From")
	body := c.FormValue("Body")

	if from == "" {
		return ErrorResponse(c, fiber.StatusBadRequest, "missing From")
	}

	userID := domain.NormalizeUserID(from)
	log := logger.WithField("user_id", userID)

	reply, err := h.conversation.HandleMessage(c.Context(), userID, body)
	if err != nil {
		if errors.Is(err, domain.ErrPersistence) {
			log.WithError(err).Error("Turn failed: store unreachable")
			return TwiMLResponse(c, "⚠️ I'm having trouble saving our conversation right now. Please try again in a moment.")
		}
		log.WithError(err).Error("Turn failed")
		return TwiMLResponse(c, "⚠️ Something went wrong. Please try again.")
	}

	return TwiMLResponse(c, reply)
}
