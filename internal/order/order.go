// Package order builds immutable orders from cart snapshots and derives
// order status from per-line placement state.
package order

import (
	"time"

	"github.com/korg1OOO/baratosociais/internal/cart"
	"github.com/korg1OOO/baratosociais/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Build creates a pending order from a cart snapshot. The order total is
// computed with the same price floor the cart uses, so it equals the cart
// total at the instant the snapshot was taken.
func Build(id uuid.UUID, sessionID string, customer model.Customer, snapshot []model.CartLine, minPrice decimal.Decimal, now time.Time) (model.Order, error) {
	if len(snapshot) == 0 {
		return model.Order{}, model.ErrEmptyCart
	}

	lines := make([]model.OrderLine, 0, len(snapshot))
	for i, cl := range snapshot {
		lines = append(lines, model.OrderLine{
			ID:                uuid.New(),
			OrderID:           id,
			Position:          i,
			ServiceID:         cl.Service.ID,
			ServiceName:       cl.Service.Name,
			ExternalServiceID: cl.Service.ExternalServiceID,
			Price:             decimal.Max(cl.Service.Price, minPrice),
			Quantity:          cl.Quantity,
			Link:              cl.Link,
			Status:            model.LineStatusAwaitingPayment,
		})
	}

	return model.Order{
		ID:        id,
		SessionID: sessionID,
		Customer:  customer,
		Lines:     lines,
		Total:     cart.Total(snapshot, minPrice),
		Status:    model.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// AttachCharges records the Pix charge of every line. Each charge lists the
// positions it pays for; a charge without positions pays the line at its own
// index.
func AttachCharges(o *model.Order, charges []model.PixCharge) {
	for i, ch := range charges {
		positions := ch.LinePositions
		if len(positions) == 0 {
			positions = []int{i}
		}
		for _, pos := range positions {
			if pos < 0 || pos >= len(o.Lines) {
				continue
			}
			o.Lines[pos].TransactionID = ch.TransactionID
			o.Lines[pos].QRCodeImage = ch.QRCodeImage
			o.Lines[pos].PixPayload = ch.PixPayload
		}
	}
}

// Derive computes the order status from its lines. Any failed line fails the
// order; all lines placed completes it; any line in flight or placed makes it
// processing; otherwise it is still pending payment.
func Derive(lines []model.OrderLine) model.OrderStatus {
	if len(lines) == 0 {
		return model.OrderStatusPending
	}

	placed, started := 0, 0
	for _, l := range lines {
		switch l.Status {
		case model.LineStatusFailed:
			return model.OrderStatusFailed
		case model.LineStatusPlaced:
			placed++
			started++
		case model.LineStatusPlacing:
			started++
		}
	}

	switch {
	case placed == len(lines):
		return model.OrderStatusCompleted
	case started > 0:
		return model.OrderStatusProcessing
	default:
		return model.OrderStatusPending
	}
}
