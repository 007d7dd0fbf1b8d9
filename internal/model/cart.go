package model

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CartLine is one (service, destination link, quantity) entry in a cart.
type CartLine struct {
	Service  Service         `json:"service"`
	Quantity decimal.Decimal `json:"quantity"`
	Link     string          `json:"link"`
}

// Subtotal returns the line amount with price floored at minPrice.
func (l CartLine) Subtotal(minPrice decimal.Decimal) decimal.Decimal {
	return decimal.Max(l.Service.Price, minPrice).Mul(l.Quantity)
}

// CartView is the read model of a session cart.
type CartView struct {
	Lines []CartLine      `json:"lines"`
	Count decimal.Decimal `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// QuantityText is a quantity as typed by the customer. It decodes from either a
// JSON number or a JSON string, so "1.5", "1,5" and 1.5 are all accepted.
type QuantityText string

// UnmarshalJSON implements json.Unmarshaler.
func (q *QuantityText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = QuantityText(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*q = ""
		return nil
	}
	*q = QuantityText(data)
	return nil
}

// AddToCartRequest is the payload for adding a service to the cart.
type AddToCartRequest struct {
	ServiceID string       `json:"serviceId" validate:"required"`
	Quantity  QuantityText `json:"quantity" validate:"required"`
	Link      string       `json:"link" validate:"required"`
}

// UpdateCartLineRequest is the payload for changing a line quantity.
// An empty Link addresses every line of the service.
type UpdateCartLineRequest struct {
	Quantity QuantityText `json:"quantity" validate:"required"`
	Link     string       `json:"link"`
}
