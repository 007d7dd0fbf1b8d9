package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/korg1OOO/baratosociais/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderColumns = `
	id, session_id, customer_name, customer_email, customer_phone, customer_tax_id,
	total, status, created_at, updated_at`

const lineColumns = `
	id, order_id, position, service_id, service_name, external_service_id,
	price, quantity, link,
	COALESCE(transaction_id, ''), COALESCE(qr_code_image, ''), COALESCE(pix_payload, ''),
	placement_status, external_order_id, COALESCE(placement_error, '')`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := tx.Exec(ctx, query,
		order.ID,
		order.SessionID,
		order.Customer.Name,
		order.Customer.Email,
		order.Customer.Phone,
		order.Customer.TaxID,
		order.Total,
		string(order.Status),
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Msg("order created successfully")

	return nil
}

// CreateOrderLines inserts the order lines within the provided transaction.
func (r *orderRepository) CreateOrderLines(ctx context.Context, tx pgx.Tx, lines []model.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_lines (
			id, order_id, position, service_id, service_name, external_service_id,
			price, quantity, link, transaction_id, qr_code_image, pix_payload, placement_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), NULLIF($11, ''), NULLIF($12, ''), $13)
	`

	batch := &pgx.Batch{}
	for _, l := range lines {
		batch.Queue(query,
			l.ID, l.OrderID, l.Position, l.ServiceID, l.ServiceName, l.ExternalServiceID,
			l.Price, l.Quantity, l.Link, l.TransactionID, l.QRCodeImage, l.PixPayload, string(l.Status),
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(lines); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", lines[i].OrderID.String()).
				Int("position", lines[i].Position).
				Msg("failed to create order line")
			return fmt.Errorf("failed to create order line: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(lines)).
		Msg("order lines created successfully")

	return nil
}

// GetByID retrieves an order with its lines.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	lines, err := r.queryLines(ctx, r.pool, `SELECT `+lineColumns+` FROM order_lines WHERE order_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	order.Lines = lines

	return order, nil
}

// ListBySession retrieves the orders of a storefront session, newest first.
func (r *orderRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, sessionID, limit)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query session orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	index := make(map[uuid.UUID]int)
	var ids []string
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		index[order.ID] = len(orders)
		ids = append(ids, order.ID.String())
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	if len(orders) == 0 {
		return []model.Order{}, nil
	}

	lines, err := r.queryLines(ctx, r.pool,
		`SELECT `+lineColumns+` FROM order_lines WHERE order_id = ANY($1::uuid[]) ORDER BY order_id, position`, ids)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		i := index[l.OrderID]
		orders[i].Lines = append(orders[i].Lines, l)
	}

	return orders, nil
}

// ClaimTransaction locks the paid order and claims its lines for placement.
func (r *orderRepository) ClaimTransaction(ctx context.Context, tx pgx.Tx, transactionID string) (uuid.UUID, []model.OrderLine, error) {
	var orderID uuid.UUID
	err := tx.QueryRow(ctx, `
		SELECT o.id
		FROM orders o
		JOIN order_lines l ON l.order_id = o.id
		WHERE l.transaction_id = $1
		LIMIT 1
		FOR UPDATE OF o
	`, transactionID).Scan(&orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, nil, model.ErrUnknownTransaction
		}
		r.logger.Error().Err(err).Str("transaction_id", transactionID).Msg("failed to lock order")
		return uuid.Nil, nil, fmt.Errorf("failed to lock order: %w", err)
	}

	claimed, err := r.queryLines(ctx, tx, `
		UPDATE order_lines
		SET placement_status = $3, updated_at = NOW()
		WHERE order_id = $1 AND transaction_id = $2 AND placement_status = $4
		RETURNING `+lineColumns,
		orderID, transactionID, string(model.LineStatusPlacing), string(model.LineStatusAwaitingPayment))
	if err != nil {
		return uuid.Nil, nil, err
	}

	r.logger.Debug().
		Str("order_id", orderID.String()).
		Str("transaction_id", transactionID).
		Int("claimed", len(claimed)).
		Msg("transaction claimed")

	return orderID, claimed, nil
}

// RecordPlacements stores the outcome of placing lines with the provider.
func (r *orderRepository) RecordPlacements(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, results []model.PlacementResult) error {
	if len(results) == 0 {
		return nil
	}

	query := `
		UPDATE order_lines
		SET placement_status = $3, external_order_id = $4, placement_error = NULLIF($5, ''), updated_at = NOW()
		WHERE order_id = $1 AND position = $2
	`

	batch := &pgx.Batch{}
	for _, res := range results {
		status := model.LineStatusPlaced
		var externalID *int64
		var message string
		if res.Err != nil {
			status = model.LineStatusFailed
			message = res.Err.Error()
		} else {
			id := res.ExternalOrderID
			externalID = &id
		}
		batch.Queue(query, orderID, res.Position, string(status), externalID, message)
	}

	batchResults := tx.SendBatch(ctx, batch)
	defer batchResults.Close()

	for i := 0; i < len(results); i++ {
		if _, err := batchResults.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", orderID.String()).
				Int("position", results[i].Position).
				Msg("failed to record placement")
			return fmt.Errorf("failed to record placement: %w", err)
		}
	}

	return nil
}

// LockOrder loads an order with its lines under a row lock.
func (r *orderRepository) LockOrder(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	order, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to lock order")
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}

	lines, err := r.queryLines(ctx, tx, `SELECT `+lineColumns+` FROM order_lines WHERE order_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	order.Lines = lines

	return order, nil
}

// UpdateStatus sets the order status.
func (r *orderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus, at time.Time) error {
	tag, err := tx.Exec(ctx, `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`, id, string(status), at)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	r.logger.Debug().
		Str("order_id", id.String()).
		Str("status", status.String()).
		Msg("order status updated")

	return nil
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *orderRepository) queryLines(ctx context.Context, q querier, query string, args ...any) ([]model.OrderLine, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query order lines")
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	var lines []model.OrderLine
	for rows.Next() {
		var (
			l      model.OrderLine
			status string
		)
		err := rows.Scan(
			&l.ID, &l.OrderID, &l.Position, &l.ServiceID, &l.ServiceName, &l.ExternalServiceID,
			&l.Price, &l.Quantity, &l.Link,
			&l.TransactionID, &l.QRCodeImage, &l.PixPayload,
			&status, &l.ExternalOrderID, &l.PlacementError,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order line row")
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		l.Status = model.LineStatus(status)
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order line rows")
		return nil, fmt.Errorf("error iterating order lines: %w", err)
	}

	return lines, nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o      model.Order
		status string
	)
	err := row.Scan(
		&o.ID,
		&o.SessionID,
		&o.Customer.Name,
		&o.Customer.Email,
		&o.Customer.Phone,
		&o.Customer.TaxID,
		&o.Total,
		&status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Status = model.OrderStatus(status)
	return &o, nil
}
