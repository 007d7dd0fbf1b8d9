package repository

import (
	"context"
	"time"

	"github.com/korg1OOO/baratosociais/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderLines inserts the order lines within the provided transaction.
	CreateOrderLines(ctx context.Context, tx pgx.Tx, lines []model.OrderLine) error

	// GetByID retrieves an order with its lines. It returns nil when the order does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// ListBySession retrieves the orders of a storefront session, newest first.
	ListBySession(ctx context.Context, sessionID string, limit int) ([]model.Order, error)

	// ClaimTransaction locks the order paid by transactionID and moves its
	// lines awaiting payment for that transaction to placing. It returns the
	// order ID and the claimed lines; a repeated claim returns no lines.
	// model.ErrUnknownTransaction is returned when no line references the transaction.
	ClaimTransaction(ctx context.Context, tx pgx.Tx, transactionID string) (uuid.UUID, []model.OrderLine, error)

	// RecordPlacements stores the outcome of placing lines with the provider.
	RecordPlacements(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, results []model.PlacementResult) error

	// LockOrder loads an order with its lines and holds a row lock until tx ends.
	LockOrder(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)

	// UpdateStatus sets the order status.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus, at time.Time) error
}
