package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/korg1OOO/baratosociais/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// InternalMarker flags provider services that must never be sold.
const InternalMarker = "SERVIÇO INTERNO"

var maxPlausiblePrice = decimal.NewFromInt(1000)

// minNameLength is the shortest accepted service name, in runes.
const minNameLength = 6

// Acceptable reports whether a mapped service passes the data-quality gate.
func Acceptable(s model.Service) bool {
	if !s.Price.IsPositive() || !s.Price.LessThan(maxPlausiblePrice) {
		return false
	}
	if utf8.RuneCountInString(s.Name) < minNameLength {
		return false
	}
	return !strings.Contains(strings.ToUpper(s.Name), InternalMarker)
}

// Filter applies the data-quality gate to a whole mapped batch.
func Filter(services []model.Service) []model.Service {
	kept := make([]model.Service, 0, len(services))
	for _, s := range services {
		if Acceptable(s) {
			kept = append(kept, s)
		}
	}
	return kept
}

// MapAll maps a raw provider batch and filters the result.
// Records with an unparsable rate are dropped and logged.
func MapAll(raws []model.ProviderService, pricing Pricing, logger zerolog.Logger) []model.Service {
	mapped := make([]model.Service, 0, len(raws))
	for _, raw := range raws {
		s, err := Map(raw, pricing)
		if err != nil {
			logger.Debug().Err(err).Int64("provider_service_id", raw.ServiceID).Msg("dropping unmappable service")
			continue
		}
		mapped = append(mapped, s)
	}

	filtered := Filter(mapped)

	logger.Info().
		Int("received", len(raws)).
		Int("mapped", len(mapped)).
		Int("kept", len(filtered)).
		Msg("catalog batch mapped")

	return filtered
}

// Query narrows a catalog listing. Empty fields and "all" match everything.
type Query struct {
	Search   string
	Category string
	Platform string
}

// Matches reports whether s satisfies every criterion of q.
func (q Query) Matches(s model.Service) bool {
	if term := strings.ToLower(strings.TrimSpace(q.Search)); term != "" {
		if !strings.Contains(strings.ToLower(s.Name), term) &&
			!strings.Contains(strings.ToLower(s.Description), term) {
			return false
		}
	}
	if !matchesFacet(q.Category, s.Category) {
		return false
	}
	return matchesFacet(q.Platform, s.Platform)
}

func matchesFacet(want, got string) bool {
	return want == "" || want == "all" || want == got
}

// Apply returns the services matching q, preserving order.
func Apply(services []model.Service, q Query) []model.Service {
	out := make([]model.Service, 0, len(services))
	for _, s := range services {
		if q.Matches(s) {
			out = append(out, s)
		}
	}
	return out
}
