package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusFailed     OrderStatus = "failed"
)

// IsTerminal reports whether no further transition is expected.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusFailed
}

func (s OrderStatus) String() string {
	return string(s)
}

// LineStatus is the placement state of a single order line.
type LineStatus string

const (
	LineStatusAwaitingPayment LineStatus = "awaiting_payment"
	LineStatusPlacing         LineStatus = "placing"
	LineStatusPlaced          LineStatus = "placed"
	LineStatusFailed          LineStatus = "failed"
)

// Order is an immutable record of a confirmed checkout.
// Only Status and the per-line placement fields change after creation.
type Order struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	SessionID string          `json:"-" db:"session_id"`
	Customer  Customer        `json:"customer"`
	Lines     []OrderLine     `json:"lines"`
	Total     decimal.Decimal `json:"total" db:"total"`
	Status    OrderStatus     `json:"status" db:"status"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderLine is a snapshot of a cart line taken at confirmation, plus its
// payment and placement references.
type OrderLine struct {
	ID                uuid.UUID       `json:"-" db:"id"`
	OrderID           uuid.UUID       `json:"-" db:"order_id"`
	Position          int             `json:"position" db:"position"`
	ServiceID         string          `json:"serviceId" db:"service_id"`
	ServiceName       string          `json:"serviceName" db:"service_name"`
	ExternalServiceID int64           `json:"externalServiceId" db:"external_service_id"`
	Price             decimal.Decimal `json:"price" db:"price"`
	Quantity          decimal.Decimal `json:"quantity" db:"quantity"`
	Link              string          `json:"link" db:"link"`
	TransactionID     string          `json:"transactionId,omitempty" db:"transaction_id"`
	QRCodeImage       string          `json:"qrCodeImage,omitempty" db:"qr_code_image"`
	PixPayload        string          `json:"pixPayload,omitempty" db:"pix_payload"`
	Status            LineStatus      `json:"status" db:"placement_status"`
	ExternalOrderID   *int64          `json:"externalOrderId,omitempty" db:"external_order_id"`
	PlacementError    string          `json:"placementError,omitempty" db:"placement_error"`
}

// Units returns the quantity in single units, as sent to the provider.
func (l OrderLine) Units() int64 {
	return l.Quantity.Mul(decimal.NewFromInt(1000)).Round(0).IntPart()
}

// TransactionIDs returns the distinct payment transactions referenced by the order.
func (o *Order) TransactionIDs() []string {
	seen := make(map[string]struct{}, len(o.Lines))
	var ids []string
	for _, l := range o.Lines {
		if l.TransactionID == "" {
			continue
		}
		if _, ok := seen[l.TransactionID]; ok {
			continue
		}
		seen[l.TransactionID] = struct{}{}
		ids = append(ids, l.TransactionID)
	}
	return ids
}

// ExternalOrderIDs returns the provider order references recorded so far.
func (o *Order) ExternalOrderIDs() []int64 {
	var ids []int64
	for _, l := range o.Lines {
		if l.ExternalOrderID != nil {
			ids = append(ids, *l.ExternalOrderID)
		}
	}
	return ids
}

// PlacementResult is the outcome of placing one order line with the provider.
type PlacementResult struct {
	Position        int
	ExternalOrderID int64
	Err             error
}

// OrderStatusEvent is published whenever an order changes status.
type OrderStatusEvent struct {
	OrderID    uuid.UUID       `json:"orderId"`
	Status     OrderStatus     `json:"status"`
	Total      decimal.Decimal `json:"total"`
	OccurredAt time.Time       `json:"occurredAt"`
}
