package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/korg1OOO/baratosociais/internal/model"
	"github.com/korg1OOO/baratosociais/internal/payment"
	"github.com/korg1OOO/baratosociais/internal/service"

	"github.com/rs/zerolog"
)

// WebhookTokenHeader may carry the shared webhook secret instead of the body.
const WebhookTokenHeader = "X-Webhook-Token"

// WebhookHandler receives payment notifications from the Pix gateway.
type WebhookHandler struct {
	service service.OrderService
	secret  string
	logger  zerolog.Logger
}

// NewWebhookHandler creates a new webhook handler verifying secret.
func NewWebhookHandler(service service.OrderService, secret string, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		secret:  secret,
		logger:  logger.With().Str("handler", "webhook").Logger(),
	}
}

type webhookAck struct {
	Received bool              `json:"received"`
	Applied  bool              `json:"applied"`
	OrderID  string            `json:"orderId,omitempty"`
	Status   model.OrderStatus `json:"status,omitempty"`
}

// Pix handles POST /webhooks/pix requests.
func (h *WebhookHandler) Pix(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "failed to read body", h.logger)
		return
	}

	event, token, err := payment.ParseWebhook(body)
	if err != nil {
		var de *model.DomainError
		if errors.As(err, &de) {
			writeDomainError(w, r, err, h.logger)
			return
		}
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid webhook body", h.logger)
		return
	}

	if header := r.Header.Get(WebhookTokenHeader); header != "" {
		token = header
	}
	if !payment.VerifyToken(h.secret, token) {
		writeDomainError(w, r, model.ErrInvalidWebhookToken, h.logger)
		return
	}

	order, err := h.service.HandlePaymentEvent(r.Context(), event)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	ack := webhookAck{Received: true}
	if order != nil {
		ack.Applied = true
		ack.OrderID = order.ID.String()
		ack.Status = order.Status
	}
	writeJSON(w, http.StatusOK, ack)
}
