package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/korg1OOO/baratosociais/internal/model"

	"github.com/shopspring/decimal"
)

// ErrInvalidRate is returned when a provider rate cannot be parsed.
var ErrInvalidRate = errors.New("rate is not numeric")

var (
	thousand = decimal.NewFromInt(1000)
	one      = decimal.NewFromInt(1)

	defaultMinQuantity = decimal.NewFromInt(1)
	defaultMaxQuantity = decimal.NewFromInt(10)
)

// baseFeatures are listed on every service.
var baseFeatures = []string{
	"Entrega rápida",
	"Alta qualidade",
	"Suporte 24h",
	"Garantia total",
}

const (
	featureRefill = "Reposição automática"
	featureCancel = "Cancelamento disponível"
)

// Pricing holds the rules turning a wholesale rate into a storefront price.
type Pricing struct {
	Markup           decimal.Decimal
	PopularThreshold decimal.Decimal
}

// DefaultPricing returns the standard 2.5x markup with a popularity threshold of 10.
func DefaultPricing() Pricing {
	return Pricing{
		Markup:           decimal.NewFromFloat(2.5),
		PopularThreshold: decimal.NewFromInt(10),
	}
}

// popularCategories are the categories eligible for the popular badge.
var popularCategories = map[string]bool{
	CategoryLikes: true,
	CategoryViews: true,
}

// Map converts a raw provider record into a storefront service.
func Map(raw model.ProviderService, pricing Pricing) (model.Service, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(raw.Rate))
	if err != nil {
		return model.Service{}, fmt.Errorf("service %d: %w: %q", raw.ServiceID, ErrInvalidRate, raw.Rate)
	}
	price := rate.Mul(pricing.Markup)

	platform := PlatformRules.Resolve(raw.Name, DefaultPlatform)
	category := CategoryRules.Resolve(raw.Name, DefaultCategory)

	minQty := thousands(raw.Min, defaultMinQuantity)
	maxQty := thousands(raw.Max, defaultMaxQuantity)
	if maxQty.LessThan(minQty) {
		maxQty = minQty
	}

	features := append([]string(nil), baseFeatures...)
	if raw.Refill {
		features = append(features, featureRefill)
	}
	if raw.Cancel {
		features = append(features, featureCancel)
	}

	description := fmt.Sprintf(
		"%s - Serviço de alta qualidade para %s. Melhore sua presença online com resultados garantidos.",
		raw.Name, platform,
	)

	return model.Service{
		ID:                fmt.Sprintf("api-%d", raw.ServiceID),
		Name:              raw.Name,
		Description:       description,
		Price:             price,
		Category:          category,
		Platform:          platform,
		MinQuantity:       minQty,
		MaxQuantity:       maxQty,
		DeliveryTime:      deliveryTime(raw.DeliveryTime, category),
		Features:          features,
		Popular:           price.LessThan(pricing.PopularThreshold) && popularCategories[category],
		ExternalServiceID: raw.ServiceID,
	}, nil
}

// thousands converts a unit count into whole thousands, clamped to at least one.
// Unparsable input yields fallback.
func thousands(value string, fallback decimal.Decimal) decimal.Decimal {
	units, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return decimal.Max(units.Div(thousand).Floor(), one)
}

// deliveryTime returns the source value, or the category default when absent.
func deliveryTime(source, category string) string {
	if source != "" {
		return source
	}
	switch category {
	case CategoryLikes, CategoryViews:
		return "5-30 minutos"
	case CategoryComments:
		return "1-6 horas"
	default:
		return "30-50 minutos"
	}
}
