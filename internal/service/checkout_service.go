package service

import (
	"context"
	"fmt"
	"time"

	"github.com/korg1OOO/baratosociais/internal/events"
	"github.com/korg1OOO/baratosociais/internal/model"
	"github.com/korg1OOO/baratosociais/internal/order"
	"github.com/korg1OOO/baratosociais/internal/payment"
	"github.com/korg1OOO/baratosociais/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// checkoutService implements CheckoutService.
type checkoutService struct {
	sessions  *SessionStore
	orderRepo repository.OrderRepository
	gateway   payment.Gateway
	publisher events.Publisher
	minPrice  decimal.Decimal
	timeout   time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewCheckoutService creates a new checkout service. Payment creation is
// bounded by timeout.
func NewCheckoutService(
	sessions *SessionStore,
	orderRepo repository.OrderRepository,
	gateway payment.Gateway,
	publisher events.Publisher,
	minPrice decimal.Decimal,
	timeout time.Duration,
	logger zerolog.Logger,
) CheckoutService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &checkoutService{
		sessions:  sessions,
		orderRepo: orderRepo,
		gateway:   gateway,
		publisher: publisher,
		minPrice:  minPrice,
		timeout:   timeout,
		logger:    logger.With().Str("service", "checkout").Logger(),
		now:       time.Now,
	}
}

// Get returns the current checkout state.
func (s *checkoutService) Get(_ context.Context, sessionID string) model.CheckoutView {
	sess, release := s.sessions.Acquire(sessionID)
	defer release()
	return sess.Flow.View()
}

// SubmitCustomer stores the customer data and moves to review.
func (s *checkoutService) SubmitCustomer(_ context.Context, sessionID string, customer model.Customer) (model.CheckoutView, error) {
	sess, release := s.sessions.Acquire(sessionID)
	defer release()

	if sess.Cart.IsEmpty() {
		return sess.Flow.View(), model.ErrEmptyCart
	}
	if err := sess.Flow.SubmitCustomer(customer); err != nil {
		return sess.Flow.View(), err
	}
	return sess.Flow.View(), nil
}

// Back returns from review to customer collection.
func (s *checkoutService) Back(_ context.Context, sessionID string) (model.CheckoutView, error) {
	sess, release := s.sessions.Acquire(sessionID)
	defer release()

	if err := sess.Flow.Back(); err != nil {
		return sess.Flow.View(), err
	}
	return sess.Flow.View(), nil
}

// Confirm snapshots the cart into an order, creates its Pix charges and
// persists it. The session stays locked for the whole call so the cart cannot
// change between snapshot and payment. On any failure the cart is untouched
// and the flow stays in review with the error recorded.
func (s *checkoutService) Confirm(ctx context.Context, sessionID string) (model.CheckoutView, error) {
	sess, release := s.sessions.Acquire(sessionID)
	defer release()

	customer, err := sess.Flow.ReadyForPayment()
	if err != nil {
		return sess.Flow.View(), err
	}

	o, err := order.Build(uuid.New(), sessionID, customer, sess.Cart.Snapshot(), s.minPrice, s.now())
	if err != nil {
		return sess.Flow.View(), err
	}

	payCtx, cancel := context.WithTimeout(ctx, s.timeout)
	charges, err := s.gateway.CreateCharges(payCtx, payment.ChargeRequest{
		OrderID:  o.ID,
		Customer: customer,
		Lines:    o.Lines,
	})
	cancel()
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", o.ID.String()).Msg("failed to create pix charges")
		sess.Flow.Fail(err)
		return sess.Flow.View(), err
	}

	order.AttachCharges(&o, charges)

	if err := s.persist(ctx, &o); err != nil {
		sess.Flow.Fail(err)
		return sess.Flow.View(), err
	}

	if err := sess.Flow.Present(o); err != nil {
		return sess.Flow.View(), err
	}

	s.logger.Info().
		Str("order_id", o.ID.String()).
		Int("line_count", len(o.Lines)).
		Int("charge_count", len(charges)).
		Str("total", o.Total.StringFixed(2)).
		Msg("order confirmed, awaiting payment")

	s.publish(ctx, &o)

	return sess.Flow.View(), nil
}

// Close ends the flow, clearing the cart once payment was presented.
func (s *checkoutService) Close(_ context.Context, sessionID string) model.CloseCheckoutResponse {
	sess, release := s.sessions.Acquire(sessionID)
	defer release()

	cleared := sess.Flow.Close()
	if cleared {
		sess.Cart.Clear()
	}
	return model.CloseCheckoutResponse{CartCleared: cleared, Checkout: sess.Flow.View()}
}

func (s *checkoutService) persist(ctx context.Context, o *model.Order) (err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.orderRepo.CreateOrder(ctx, tx, o); err != nil {
		s.logger.Error().Err(err).Str("order_id", o.ID.String()).Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateOrderLines(ctx, tx, o.Lines); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", o.ID.String()).
			Int("line_count", len(o.Lines)).
			Msg("failed to create order lines")
		return fmt.Errorf("failed to create order lines: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", o.ID.String()).Msg("failed to commit transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

func (s *checkoutService) publish(ctx context.Context, o *model.Order) {
	event := model.OrderStatusEvent{
		OrderID:    o.ID,
		Status:     o.Status,
		Total:      o.Total,
		OccurredAt: o.CreatedAt,
	}
	if err := s.publisher.PublishOrderStatus(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("order_id", o.ID.String()).Msg("failed to publish order status")
	}
}
