package model

import "github.com/shopspring/decimal"

// Service is a catalog entry offered in the storefront.
// Quantities are expressed in thousands of units.
type Service struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price"`
	Category          string          `json:"category"`
	Platform          string          `json:"platform"`
	MinQuantity       decimal.Decimal `json:"minQuantity"`
	MaxQuantity       decimal.Decimal `json:"maxQuantity"`
	DeliveryTime      string          `json:"deliveryTime"`
	Features          []string        `json:"features"`
	Popular           bool            `json:"popular"`
	ExternalServiceID int64           `json:"externalServiceId,omitempty"`
}

// ProviderService is a raw catalog record as returned by the engagement provider.
// Numeric fields arrive as text and are parsed by the catalog mapper.
type ProviderService struct {
	ServiceID    int64  `json:"service"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Category     string `json:"category"`
	Rate         string `json:"rate"`
	Min          string `json:"min"`
	Max          string `json:"max"`
	Refill       bool   `json:"refill"`
	Cancel       bool   `json:"cancel"`
	DeliveryTime string `json:"deliveryTime,omitempty"`
}

// CatalogStatus describes the outcome of the most recent catalog refresh.
type CatalogStatus struct {
	Count       int    `json:"count"`
	Source      string `json:"source"`
	LastError   string `json:"lastError,omitempty"`
	RefreshedAt string `json:"refreshedAt,omitempty"`
	Retryable   bool   `json:"retryable"`
}

// CatalogListing is a filtered catalog page together with the refresh status,
// so clients can show a retry banner while serving the last known list.
type CatalogListing struct {
	Services []Service     `json:"services"`
	Status   CatalogStatus `json:"status"`
}
