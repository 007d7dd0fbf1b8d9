package payment

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/korg1OOO/baratosociais/internal/model"
)

// webhookBody accepts both the nested gateway format
// {event, token, transaction: {id, status}} and the flat
// {eventType, transactionId, status} format.
type webhookBody struct {
	Event         string `json:"event"`
	EventType     string `json:"eventType"`
	Token         string `json:"token"`
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	Transaction   *struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"transaction"`
}

// ParseWebhook decodes a webhook body into a payment event and the token it carries.
func ParseWebhook(data []byte) (model.PaymentEvent, string, error) {
	var body webhookBody
	if err := json.Unmarshal(data, &body); err != nil {
		return model.PaymentEvent{}, "", fmt.Errorf("invalid webhook body: %w", err)
	}

	event := model.PaymentEvent{
		EventType:     firstNonEmpty(body.EventType, body.Event),
		TransactionID: body.TransactionID,
		Status:        body.Status,
	}
	if body.Transaction != nil {
		event.TransactionID = firstNonEmpty(event.TransactionID, body.Transaction.ID)
		event.Status = firstNonEmpty(event.Status, body.Transaction.Status)
	}

	if event.EventType == "" {
		return model.PaymentEvent{}, "", model.ErrMissingField.WithMessage("Webhook event type is required")
	}
	if event.TransactionID == "" {
		return model.PaymentEvent{}, "", model.ErrMissingField.WithMessage("Webhook transaction id is required")
	}

	return event, body.Token, nil
}

// VerifyToken compares the shared webhook secret in constant time.
func VerifyToken(expected, got string) bool {
	if expected == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
