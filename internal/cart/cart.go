// Package cart implements the per-session shopping cart.
//
// Quantities are expressed in thousands of units and are always kept inside
// the service's [MinQuantity, MaxQuantity] range. A Cart is not safe for
// concurrent use; callers serialise access per session.
package cart

import (
	"github.com/korg1OOO/baratosociais/internal/model"

	"github.com/shopspring/decimal"
)

// DefaultMinimumPrice is the unit price floor applied when totalling.
var DefaultMinimumPrice = decimal.RequireFromString("1.50")

// Cart is an ordered collection of lines keyed by (service ID, link).
type Cart struct {
	lines    []model.CartLine
	minPrice decimal.Decimal
}

// New creates an empty cart totalling with the given price floor.
func New(minPrice decimal.Decimal) *Cart {
	return &Cart{minPrice: minPrice}
}

// Add puts quantity of service into the cart for link. An existing line for
// the same (service, link) is merged; the result is clamped into the
// service's quantity range.
func (c *Cart) Add(service model.Service, quantity decimal.Decimal, link string) (model.CartLine, error) {
	if link == "" {
		return model.CartLine{}, model.ErrMissingLink
	}

	for i := range c.lines {
		line := &c.lines[i]
		if line.Service.ID != service.ID || line.Link != link {
			continue
		}
		merged := decimal.Min(line.Quantity.Add(quantity), service.MaxQuantity)
		line.Quantity = decimal.Max(merged, service.MinQuantity)
		line.Service = service
		return *line, nil
	}

	line := model.CartLine{
		Service:  service,
		Quantity: clamp(quantity, service.MinQuantity, service.MaxQuantity),
		Link:     link,
	}
	c.lines = append(c.lines, line)
	return line, nil
}

// SetQuantity changes the quantity of the lines addressed by serviceID and
// link. An empty link addresses every line of the service. A quantity below
// the service minimum removes the line; one above the maximum is clamped.
// It reports how many lines were removed.
func (c *Cart) SetQuantity(serviceID, link string, quantity decimal.Decimal) (int, error) {
	matched, removed := 0, 0
	kept := c.lines[:0]
	for _, line := range c.lines {
		if !addresses(line, serviceID, link) {
			kept = append(kept, line)
			continue
		}
		matched++
		if quantity.LessThan(line.Service.MinQuantity) {
			removed++
			continue
		}
		line.Quantity = decimal.Min(quantity, line.Service.MaxQuantity)
		kept = append(kept, line)
	}
	c.lines = kept

	if matched == 0 {
		return 0, model.ErrCartLineNotFound
	}
	return removed, nil
}

// Remove deletes the lines addressed by serviceID and link. An empty link
// addresses every line of the service. Removing a missing line is a no-op.
func (c *Cart) Remove(serviceID, link string) {
	kept := c.lines[:0]
	for _, line := range c.lines {
		if !addresses(line, serviceID, link) {
			kept = append(kept, line)
		}
	}
	c.lines = kept
}

// Total returns the sum of max(price, minimum price) × quantity.
func (c *Cart) Total() decimal.Decimal {
	return Total(c.lines, c.minPrice)
}

// Total sums lines with the unit price floored at minPrice.
func Total(lines []model.CartLine, minPrice decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal(minPrice))
	}
	return total
}

// Count returns the sum of line quantities.
func (c *Cart) Count() decimal.Decimal {
	count := decimal.Zero
	for _, line := range c.lines {
		count = count.Add(line.Quantity)
	}
	return count
}

// Len returns the number of lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []model.CartLine {
	out := make([]model.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Snapshot returns a detached copy of the lines, safe to keep after the cart
// changes.
func (c *Cart) Snapshot() []model.CartLine {
	out := c.Lines()
	for i := range out {
		out[i].Service.Features = append([]string(nil), out[i].Service.Features...)
	}
	return out
}

// View returns the read model of the cart.
func (c *Cart) View() model.CartView {
	return model.CartView{
		Lines: c.Lines(),
		Count: c.Count(),
		Total: c.Total(),
	}
}

// Clear removes every line.
func (c *Cart) Clear() {
	c.lines = nil
}

func addresses(line model.CartLine, serviceID, link string) bool {
	return line.Service.ID == serviceID && (link == "" || line.Link == link)
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Min(v, hi), lo)
}
