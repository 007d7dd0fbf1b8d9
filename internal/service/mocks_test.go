package service

import (
	"context"
	"time"

	"github.com/korg1OOO/baratosociais/internal/catalog"
	"github.com/korg1OOO/baratosociais/internal/model"
	"github.com/korg1OOO/baratosociais/internal/payment"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	// Return a MockTx interface value, not a pointer
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateOrderLines(ctx context.Context, tx pgx.Tx, lines []model.OrderLine) error {
	args := m.Called(ctx, tx, lines)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]model.Order, error) {
	args := m.Called(ctx, sessionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) ClaimTransaction(ctx context.Context, tx pgx.Tx, transactionID string) (uuid.UUID, []model.OrderLine, error) {
	args := m.Called(ctx, tx, transactionID)
	lines, _ := args.Get(1).([]model.OrderLine)
	return args.Get(0).(uuid.UUID), lines, args.Error(2)
}

func (m *MockOrderRepository) RecordPlacements(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, results []model.PlacementResult) error {
	args := m.Called(ctx, tx, orderID, results)
	return args.Error(0)
}

func (m *MockOrderRepository) LockOrder(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus, at time.Time) error {
	args := m.Called(ctx, tx, id, status, at)
	return args.Error(0)
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
	committed  bool
	rolledBack bool
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	m.committed = true
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	m.rolledBack = true
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }

// MockProviderClient is a mock implementation of provider.Client.
type MockProviderClient struct {
	mock.Mock
}

func (m *MockProviderClient) Services(ctx context.Context) ([]model.ProviderService, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProviderService), args.Error(1)
}

func (m *MockProviderClient) AddOrder(ctx context.Context, serviceID int64, link string, units int64) (int64, error) {
	args := m.Called(ctx, serviceID, link, units)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProviderClient) Status(ctx context.Context, orderID int64) (model.ProviderOrderStatus, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(model.ProviderOrderStatus), args.Error(1)
}

func (m *MockProviderClient) Balance(ctx context.Context) (model.Balance, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.Balance), args.Error(1)
}

func (m *MockProviderClient) Refill(ctx context.Context, orderID int64) (model.RefillResult, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(model.RefillResult), args.Error(1)
}

func (m *MockProviderClient) Cancel(ctx context.Context, orderIDs []int64) ([]model.CancelResult, error) {
	args := m.Called(ctx, orderIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CancelResult), args.Error(1)
}

// MockGateway is a mock implementation of payment.Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateCharges(ctx context.Context, req payment.ChargeRequest) ([]model.PixCharge, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PixCharge), args.Error(1)
}

// MockPublisher is a mock implementation of events.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishOrderStatus(ctx context.Context, event model.OrderStatusEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockCatalogCache is a mock implementation of cache.CatalogCache.
type MockCatalogCache struct {
	mock.Mock
}

func (m *MockCatalogCache) Get(ctx context.Context) ([]model.Service, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Service), args.Error(1)
}

func (m *MockCatalogCache) Set(ctx context.Context, services []model.Service) error {
	args := m.Called(ctx, services)
	return args.Error(0)
}

func (m *MockCatalogCache) Delete(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockSnapshotStore is a mock implementation of catalog.SnapshotStore.
type MockSnapshotStore struct {
	mock.Mock
}

func (m *MockSnapshotStore) Load(ctx context.Context) ([]model.Service, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Service), args.Error(1)
}

func (m *MockSnapshotStore) Save(ctx context.Context, services []model.Service) error {
	args := m.Called(ctx, services)
	return args.Error(0)
}

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
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCatalogService) Refresh(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCatalogService) Run(ctx context.Context) {
	m.Called(ctx)
}
