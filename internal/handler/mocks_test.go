package handler

import (
	"context"

	"github.com/korg1OOO/baratosociais/internal/catalog"
	"github.com/korg1OOO/baratosociais/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockCatalogService is a mock implementation of CatalogService.
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) List(ctx context.Context, q catalog.Query) model.CatalogListing {
	args := m.Called(ctx, q)
	return args.Get(0).(model.CatalogListing)
}

func (m *MockCatalogService) Get(ctx context.Context, id string) (*model.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Service), args.Error(1)
}

func (m *MockCatalogService) Status() model.CatalogStatus {
	args := m.Called()
	return args.Get(0).(model.CatalogStatus)
}

func (m *MockCatalogService) Load(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockCatalogService) Refresh(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockCatalogService) Run(ctx context.Context) {
	m.Called(ctx)
}

// MockCartService is a mock implementation of CartService.
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) Get(ctx context.Context, sessionID string) model.CartView {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(model.CartView)
}

func (m *MockCartService) Add(ctx context.Context, sessionID string, req model.AddToCartRequest) (model.CartView, error) {
	args := m.Called(ctx, sessionID, req)
	return args.Get(0).(model.CartView), args.Error(1)
}

func (m *MockCartService) SetQuantity(ctx context.Context, sessionID, serviceID string, req model.UpdateCartLineRequest) (model.CartView, error) {
	args := m.Called(ctx, sessionID, serviceID, req)
	return args.Get(0).(model.CartView), args.Error(1)
}

func (m *MockCartService) Remove(ctx context.Context, sessionID, serviceID, link string) model.CartView {
	args := m.Called(ctx, sessionID, serviceID, link)
	return args.Get(0).(model.CartView)
}

// MockCheckoutService is a mock implementation of CheckoutService.
type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) Get(ctx context.Context, sessionID string) model.CheckoutView {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(model.CheckoutView)
}

func (m *MockCheckoutService) SubmitCustomer(ctx context.Context, sessionID string, customer model.Customer) (model.CheckoutView, error) {
	args := m.Called(ctx, sessionID, customer)
	return args.Get(0).(model.CheckoutView), args.Error(1)
}

func (m *MockCheckoutService) Back(ctx context.Context, sessionID string) (model.CheckoutView, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(model.CheckoutView), args.Error(1)
}

func (m *MockCheckoutService) Confirm(ctx context.Context, sessionID string) (model.CheckoutView, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(model.CheckoutView), args.Error(1)
}

func (m *MockCheckoutService) Close(ctx context.Context, sessionID string) model.CloseCheckoutResponse {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(model.CloseCheckoutResponse)
}

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) HandlePaymentEvent(ctx context.Context, event model.PaymentEvent) (*model.Order, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) GetForSession(ctx context.Context, sessionID string, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, sessionID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) ListBySession(ctx context.Context, sessionID string) ([]model.Order, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) ProviderStatus(ctx context.Context, id uuid.UUID) ([]model.ProviderOrderStatus, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProviderOrderStatus), args.Error(1)
}

func (m *MockOrderService) Refill(ctx context.Context, id uuid.UUID) ([]model.RefillResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RefillResult), args.Error(1)
}

func (m *MockOrderService) Cancel(ctx context.Context, id uuid.UUID) ([]model.CancelResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CancelResult), args.Error(1)
}

func (m *MockOrderService) Balance(ctx context.Context) (model.Balance, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.Balance), args.Error(1)
}
