package cart

import (
	"strings"

	"github.com/korg1OOO/baratosociais/internal/model"

	"github.com/shopspring/decimal"
)

// ParseQuantity parses a quantity typed with either a dot or a comma as the
// decimal separator. When both appear, the last one is the decimal
// separator and the other groups thousands. A separator repeated more than
// once is treated as a thousands separator.
func ParseQuantity(text string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(text), " ", "")
	if s == "" {
		return decimal.Zero, model.ErrInvalidQuantity.WithMessage("Quantity is required")
	}

	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")

	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case dot >= 0:
		if strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, model.ErrInvalidQuantity.WithMessage("Quantity %q is not a number", text)
	}

	q, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, model.ErrInvalidQuantity.WithMessage("Quantity %q is not a number", text).Wrap(err)
	}
	return q, nil
}
