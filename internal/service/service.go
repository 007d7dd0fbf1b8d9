package service

import (
	"context"

	"github.com/korg1OOO/baratosociais/internal/catalog"
	"github.com/korg1OOO/baratosociais/internal/model"

	"github.com/google/uuid"
)

// CatalogService serves the storefront catalog built from the provider.
type CatalogService interface {
	// List returns the services matching q together with the refresh status.
	List(ctx context.Context, q catalog.Query) model.CatalogListing

	// Get retrieves a single service by its storefront ID.
	Get(ctx context.Context, id string) (*model.Service, error)

	// Status reports the outcome of the last refresh.
	Status() model.CatalogStatus

	// Load populates the catalog, preferring the shared cache over the provider.
	Load(ctx context.Context) error

	// Refresh rebuilds the catalog from the provider.
	Refresh(ctx context.Context) error

	// Run refreshes the catalog periodically until ctx is done.
	Run(ctx context.Context)
}

// CartService manages session carts.
type CartService interface {
	// Get returns the cart of a session.
	Get(ctx context.Context, sessionID string) model.CartView

	// Add puts a service in the cart or increments an existing line.
	Add(ctx context.Context, sessionID string, req model.AddToCartRequest) (model.CartView, error)

	// SetQuantity changes the quantity of the lines addressed by serviceID and link.
	SetQuantity(ctx context.Context, sessionID, serviceID string, req model.UpdateCartLineRequest) (model.CartView, error)

	// Remove deletes the lines addressed by serviceID and link.
	Remove(ctx context.Context, sessionID, serviceID, link string) model.CartView
}

// CheckoutService drives the checkout flow of a session.
type CheckoutService interface {
	// Get returns the current checkout state.
	Get(ctx context.Context, sessionID string) model.CheckoutView

	// SubmitCustomer stores the customer data and moves to review.
	SubmitCustomer(ctx context.Context, sessionID string, customer model.Customer) (model.CheckoutView, error)

	// Back returns from review to customer collection.
	Back(ctx context.Context, sessionID string) (model.CheckoutView, error)

	// Confirm snapshots the cart into an order and creates its Pix charges.
	Confirm(ctx context.Context, sessionID string) (model.CheckoutView, error)

	// Close ends the flow, clearing the cart once payment was presented.
	Close(ctx context.Context, sessionID string) model.CloseCheckoutResponse
}

// OrderService projects payment events onto orders and exposes order queries.
type OrderService interface {
	// HandlePaymentEvent applies a payment confirmation. Events that do not
	// confirm a payment and repeated confirmations are ignored.
	HandlePaymentEvent(ctx context.Context, event model.PaymentEvent) (*model.Order, error)

	// GetByID retrieves an order with its lines.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetForSession retrieves an order only if it belongs to the session.
	GetForSession(ctx context.Context, sessionID string, id uuid.UUID) (*model.Order, error)

	// ListBySession retrieves the order history of a session.
	ListBySession(ctx context.Context, sessionID string) ([]model.Order, error)

	// ProviderStatus queries the provider for every placed line of the order.
	ProviderStatus(ctx context.Context, id uuid.UUID) ([]model.ProviderOrderStatus, error)

	// Refill requests a refill for every placed line of the order.
	Refill(ctx context.Context, id uuid.UUID) ([]model.RefillResult, error)

	// Cancel requests cancellation of every placed line of the order.
	Cancel(ctx context.Context, id uuid.UUID) ([]model.CancelResult, error)

	// Balance returns the provider account balance.
	Balance(ctx context.Context) (model.Balance, error)
}
