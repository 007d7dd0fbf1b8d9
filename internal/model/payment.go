package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PixCharge is a Pix payment created for one or more order lines.
type PixCharge struct {
	TransactionID string `json:"transactionId"`
	QRCodeImage   string `json:"qrCodeImage"`
	PixPayload    string `json:"pixPayload"`
	// LinePositions lists the order lines paid by this charge.
	LinePositions []int `json:"linePositions"`
}

// PaymentEvent is a payment confirmation delivered by the gateway webhook.
type PaymentEvent struct {
	EventType     string `json:"eventType"`
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

// IsPaid reports whether the event confirms a completed payment.
func (e PaymentEvent) IsPaid() bool {
	event := strings.ToLower(e.EventType)
	status := strings.ToLower(e.Status)
	return (event == "paid" || event == "transaction_paid") &&
		(status == "completed" || status == "paid")
}

// Balance is the provider account balance (advisory display only).
type Balance struct {
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

// ProviderOrderStatus is the provider's view of a placed order.
type ProviderOrderStatus struct {
	ExternalOrderID int64  `json:"externalOrderId"`
	Charge          string `json:"charge"`
	StartCount      string `json:"startCount"`
	Status          string `json:"status"`
	Remains         string `json:"remains"`
	Currency        string `json:"currency"`
	Error           string `json:"error,omitempty"`
}

// CancelResult is the provider's answer for one order in a cancel request.
type CancelResult struct {
	ExternalOrderID int64  `json:"externalOrderId"`
	CancelID        string `json:"cancelId,omitempty"`
	Error           string `json:"error,omitempty"`
}

// RefillResult is the provider's answer to a refill request.
type RefillResult struct {
	ExternalOrderID int64  `json:"externalOrderId"`
	RefillID        string `json:"refillId,omitempty"`
	Error           string `json:"error,omitempty"`
}
