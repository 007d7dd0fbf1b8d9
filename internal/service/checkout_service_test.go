package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/korg1OOO/baratosociais/internal/cart"
	"github.com/korg1OOO/baratosociais/internal/model"
	"github.com/korg1OOO/baratosociais/internal/payment"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testCustomer() model.Customer {
	return model.Customer{
		Name:  "Maria Silva",
		Email: "maria@example.com",
		Phone: "+55 11 99999-0000",
		TaxID: "123.456.789-09",
	}
}

type checkoutFixture struct {
	sessions  *SessionStore
	repo      *MockOrderRepository
	gateway   *MockGateway
	publisher *MockPublisher
	service   CheckoutService
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	f := &checkoutFixture{
		sessions:  newTestSessions(),
		repo:      new(MockOrderRepository),
		gateway:   new(MockGateway),
		publisher: new(MockPublisher),
	}
	f.service = NewCheckoutService(f.sessions, f.repo, f.gateway, f.publisher, cart.DefaultMinimumPrice, time.Second, zerolog.Nop())

	sess, release := f.sessions.Acquire("s1")
	_, err := sess.Cart.Add(likesService(), dec("1.5"), "https://instagram.com/p/abc")
	release()
	require.NoError(t, err)

	return f
}

func (f *checkoutFixture) cartLen() int {
	sess, release := f.sessions.Acquire("s1")
	defer release()
	return sess.Cart.Len()
}

func TestCheckoutService_Confirm_Success(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	mockTx := new(MockTx)

	_, err := f.service.SubmitCustomer(ctx, "s1", testCustomer())
	require.NoError(t, err)

	charges := []model.PixCharge{{TransactionID: "tx-1", QRCodeImage: "data:image/png;base64,AAA", PixPayload: "00020126", LinePositions: []int{0}}}

	f.gateway.On("CreateCharges", mock.Anything, mock.MatchedBy(func(req payment.ChargeRequest) bool {
		return len(req.Lines) == 1 && req.Customer.Email == "maria@example.com"
	})).Return(charges, nil)
	f.repo.On("BeginTx", ctx).Return(mockTx, nil)
	f.repo.On("CreateOrder", ctx, mockTx, mock.AnythingOfType("*model.Order")).Return(nil)
	f.repo.On("CreateOrderLines", ctx, mockTx, mock.AnythingOfType("[]model.OrderLine")).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)
	f.publisher.On("PublishOrderStatus", ctx, mock.MatchedBy(func(e model.OrderStatusEvent) bool {
		return e.Status == model.OrderStatusPending
	})).Return(nil)

	view, err := f.service.Confirm(ctx, "s1")

	require.NoError(t, err)
	assert.Equal(t, model.CheckoutStepPaymentPresented, view.Step)
	require.NotNil(t, view.Order)
	assert.True(t, view.Order.Total.Equal(dec("12")))
	assert.Equal(t, model.OrderStatusPending, view.Order.Status)
	require.Len(t, view.Order.Lines, 1)
	assert.Equal(t, "tx-1", view.Order.Lines[0].TransactionID)
	assert.Equal(t, int64(1500), view.Order.Lines[0].Units())
	assert.True(t, mockTx.committed)
	assert.False(t, mockTx.rolledBack)

	// The cart survives until the customer closes the payment step.
	assert.Equal(t, 1, f.cartLen())

	closed := f.service.Close(ctx, "s1")
	assert.True(t, closed.CartCleared)
	assert.Equal(t, model.CheckoutStepCollectingCustomer, closed.Checkout.Step)
	assert.Equal(t, 0, f.cartLen())

	f.gateway.AssertExpectations(t)
	f.repo.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestCheckoutService_Confirm_PaymentFailurePreservesCart(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)

	_, err := f.service.SubmitCustomer(ctx, "s1", testCustomer())
	require.NoError(t, err)

	f.gateway.On("CreateCharges", mock.Anything, mock.Anything).
		Return(nil, model.ErrPaymentFailed.Wrap(errors.New("gateway returned 503")))

	view, err := f.service.Confirm(ctx, "s1")

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrPaymentFailed)
	assert.Equal(t, model.CheckoutStepReviewingOrder, view.Step)
	assert.Equal(t, model.ErrPaymentFailed.Message, view.Error)
	assert.Nil(t, view.Order)
	assert.Equal(t, 1, f.cartLen())

	f.repo.AssertNotCalled(t, "BeginTx", mock.Anything)
	f.publisher.AssertNotCalled(t, "PublishOrderStatus", mock.Anything, mock.Anything)

	closed := f.service.Close(ctx, "s1")
	assert.False(t, closed.CartCleared)
	assert.Equal(t, 1, f.cartLen())
}

func TestCheckoutService_Confirm_PersistFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	mockTx := new(MockTx)

	_, err := f.service.SubmitCustomer(ctx, "s1", testCustomer())
	require.NoError(t, err)

	f.gateway.On("CreateCharges", mock.Anything, mock.Anything).
		Return([]model.PixCharge{{TransactionID: "tx-1"}}, nil)
	f.repo.On("BeginTx", ctx).Return(mockTx, nil)
	f.repo.On("CreateOrder", ctx, mockTx, mock.Anything).Return(errors.New("connection reset"))
	mockTx.On("Rollback", ctx).Return(nil)

	view, err := f.service.Confirm(ctx, "s1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create order")
	assert.Equal(t, model.CheckoutStepReviewingOrder, view.Step)
	assert.NotEmpty(t, view.Error)
	assert.True(t, mockTx.rolledBack)
	assert.Equal(t, 1, f.cartLen())
}

func TestCheckoutService_StepGuards(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)

	_, err := f.service.Confirm(ctx, "s1")
	assert.ErrorIs(t, err, model.ErrInvalidCheckoutStep)

	_, err = f.service.Back(ctx, "s1")
	assert.ErrorIs(t, err, model.ErrInvalidCheckoutStep)

	_, err = f.service.SubmitCustomer(ctx, "s1", model.Customer{Name: "Maria", Email: " "})
	assert.ErrorIs(t, err, model.ErrMissingField)

	view, err := f.service.SubmitCustomer(ctx, "s1", testCustomer())
	require.NoError(t, err)
	assert.Equal(t, model.CheckoutStepReviewingOrder, view.Step)

	view, err = f.service.Back(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, model.CheckoutStepCollectingCustomer, view.Step)
	require.NotNil(t, view.Customer)
	assert.Equal(t, "Maria Silva", view.Customer.Name)

	_, err = f.service.SubmitCustomer(ctx, "empty-session", testCustomer())
	assert.ErrorIs(t, err, model.ErrEmptyCart)

	f.gateway.AssertNotCalled(t, "CreateCharges", mock.Anything, mock.Anything)
}
