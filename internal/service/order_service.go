package service

import (
	"context"
	"fmt"
	"time"

	"github.com/korg1OOO/baratosociais/internal/events"
	"github.com/korg1OOO/baratosociais/internal/model"
	"github.com/korg1OOO/baratosociais/internal/order"
	"github.com/korg1OOO/baratosociais/internal/provider"
	"github.com/korg1OOO/baratosociais/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// placementConcurrency bounds parallel provider calls for one payment.
	placementConcurrency = 4

	historyLimit = 50
)

// orderService implements OrderService.
type orderService struct {
	orderRepo repository.OrderRepository
	provider  provider.Client
	publisher events.Publisher
	logger    zerolog.Logger
	now       func() time.Time
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	client provider.Client,
	publisher events.Publisher,
	logger zerolog.Logger,
) OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &orderService{
		orderRepo: orderRepo,
		provider:  client,
		publisher: publisher,
		logger:    logger.With().Str("service", "order").Logger(),
		now:       time.Now,
	}
}

// HandlePaymentEvent applies a payment confirmation. The lines paid by the
// transaction are claimed in one transaction, so a repeated delivery finds
// nothing to claim and leaves the order untouched. Claimed lines are placed
// with the provider in parallel and the order status is derived from the
// per-line outcomes.
func (s *orderService) HandlePaymentEvent(ctx context.Context, event model.PaymentEvent) (*model.Order, error) {
	if !event.IsPaid() {
		s.logger.Debug().
			Str("event_type", event.EventType).
			Str("status", event.Status).
			Str("transaction_id", event.TransactionID).
			Msg("ignoring non-payment event")
		return nil, nil
	}

	// Placement must finish once lines are claimed, even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	orderID, claimed, err := s.claim(ctx, event.TransactionID)
	if err != nil {
		return nil, err
	}

	if len(claimed) == 0 {
		s.logger.Info().
			Str("transaction_id", event.TransactionID).
			Str("order_id", orderID.String()).
			Msg("duplicate payment event ignored")
		return s.GetByID(ctx, orderID)
	}

	results := s.place(ctx, orderID, claimed)

	updated, err := s.record(ctx, orderID, results)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, updated)
	return updated, nil
}

// claim marks the transaction's lines as placing and the order as processing.
func (s *orderService) claim(ctx context.Context, transactionID string) (orderID uuid.UUID, claimed []model.OrderLine, err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return uuid.Nil, nil, fmt.Errorf("failed to claim payment: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	orderID, claimed, err = s.orderRepo.ClaimTransaction(ctx, tx, transactionID)
	if err != nil {
		s.logger.Warn().Err(err).Str("transaction_id", transactionID).Msg("failed to claim transaction")
		return uuid.Nil, nil, err
	}

	if len(claimed) > 0 {
		if err = s.orderRepo.UpdateStatus(ctx, tx, orderID, model.OrderStatusProcessing, s.now()); err != nil {
			s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to mark order processing")
			return uuid.Nil, nil, fmt.Errorf("failed to claim payment: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to commit transaction")
		return uuid.Nil, nil, fmt.Errorf("failed to claim payment: %w", err)
	}

	if len(claimed) > 0 {
		s.logger.Info().
			Str("transaction_id", transactionID).
			Str("order_id", orderID.String()).
			Int("line_count", len(claimed)).
			Msg("payment confirmed, placing lines")
	}

	return orderID, claimed, nil
}

// place submits every claimed line to the provider. A failing line does not
// stop its siblings.
func (s *orderService) place(ctx context.Context, orderID uuid.UUID, lines []model.OrderLine) []model.PlacementResult {
	results := make([]model.PlacementResult, len(lines))

	var g errgroup.Group
	g.SetLimit(placementConcurrency)

	for i, line := range lines {
		i, line := i, line
		g.Go(func() error {
			externalID, err := s.provider.AddOrder(ctx, line.ExternalServiceID, line.Link, line.Units())
			results[i] = model.PlacementResult{Position: line.Position, ExternalOrderID: externalID, Err: err}
			if err != nil {
				s.logger.Error().
					Err(err).
					Str("order_id", orderID.String()).
					Int("position", line.Position).
					Int64("external_service_id", line.ExternalServiceID).
					Msg("line placement failed")
				return nil
			}
			s.logger.Info().
				Str("order_id", orderID.String()).
				Int("position", line.Position).
				Int64("external_order_id", externalID).
				Msg("line placed")
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// record stores placement results and derives the resulting order status.
func (s *orderService) record(ctx context.Context, orderID uuid.UUID, results []model.PlacementResult) (updated *model.Order, err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to record placements: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.orderRepo.RecordPlacements(ctx, tx, orderID, results); err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to record placements")
		return nil, fmt.Errorf("failed to record placements: %w", err)
	}

	o, err := s.orderRepo.LockOrder(ctx, tx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to lock order")
		return nil, fmt.Errorf("failed to record placements: %w", err)
	}

	now := s.now()
	status := order.Derive(o.Lines)
	if status != o.Status {
		if err = s.orderRepo.UpdateStatus(ctx, tx, orderID, status, now); err != nil {
			s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to update order status")
			return nil, fmt.Errorf("failed to record placements: %w", err)
		}
		o.Status = status
		o.UpdatedAt = now
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to record placements: %w", err)
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("status", status.String()).
		Msg("order status updated")

	return o, nil
}

// GetByID retrieves an order with its lines.
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	o, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if o == nil {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	return o, nil
}

// GetForSession retrieves an order only if it belongs to the session. Orders
// of other sessions are reported as missing.
func (s *orderService) GetForSession(ctx context.Context, sessionID string, id uuid.UUID) (*model.Order, error) {
	o, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.SessionID != sessionID {
		return nil, model.ErrOrderNotFound
	}
	return o, nil
}

// ListBySession retrieves the order history of a session.
func (s *orderService) ListBySession(ctx context.Context, sessionID string) ([]model.Order, error) {
	orders, err := s.orderRepo.ListBySession(ctx, sessionID, historyLimit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

// ProviderStatus queries the provider for every placed line of the order.
// A failing lookup is reported on its entry instead of failing the call.
func (s *orderService) ProviderStatus(ctx context.Context, id uuid.UUID) ([]model.ProviderOrderStatus, error) {
	ids, err := s.placedIDs(ctx, id)
	if err != nil {
		return nil, err
	}

	statuses := make([]model.ProviderOrderStatus, len(ids))

	var g errgroup.Group
	g.SetLimit(placementConcurrency)
	for i, externalID := range ids {
		i, externalID := i, externalID
		g.Go(func() error {
			st, err := s.provider.Status(ctx, externalID)
			if err != nil {
				st = model.ProviderOrderStatus{ExternalOrderID: externalID, Error: err.Error()}
			}
			statuses[i] = st
			return nil
		})
	}
	_ = g.Wait()

	return statuses, nil
}

// Refill requests a refill for every placed line of the order.
func (s *orderService) Refill(ctx context.Context, id uuid.UUID) ([]model.RefillResult, error) {
	ids, err := s.placedIDs(ctx, id)
	if err != nil {
		return nil, err
	}

	results := make([]model.RefillResult, 0, len(ids))
	for _, externalID := range ids {
		res, err := s.provider.Refill(ctx, externalID)
		if err != nil {
			res = model.RefillResult{ExternalOrderID: externalID, Error: err.Error()}
		}
		results = append(results, res)
	}

	s.logger.Info().Str("order_id", id.String()).Int("count", len(results)).Msg("refill requested")
	return results, nil
}

// Cancel requests cancellation of every placed line of the order.
func (s *orderService) Cancel(ctx context.Context, id uuid.UUID) ([]model.CancelResult, error) {
	ids, err := s.placedIDs(ctx, id)
	if err != nil {
		return nil, err
	}

	results, err := s.provider.Cancel(ctx, ids)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("order_id", id.String()).Int("count", len(results)).Msg("cancel requested")
	return results, nil
}

// Balance returns the provider account balance.
func (s *orderService) Balance(ctx context.Context) (model.Balance, error) {
	return s.provider.Balance(ctx)
}

func (s *orderService) placedIDs(ctx context.Context, id uuid.UUID) ([]int64, error) {
	o, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := o.ExternalOrderIDs()
	if len(ids) == 0 {
		return nil, model.ErrOrderNotPlaced
	}
	return ids, nil
}

func (s *orderService) publish(ctx context.Context, o *model.Order) {
	event := model.OrderStatusEvent{
		OrderID:    o.ID,
		Status:     o.Status,
		Total:      o.Total,
		OccurredAt: o.UpdatedAt,
	}
	if err := s.publisher.PublishOrderStatus(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("order_id", o.ID.String()).Msg("failed to publish order status")
	}
}
