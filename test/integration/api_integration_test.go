package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/korg1OOO/baratosociais/internal/cache"
	"github.com/korg1OOO/baratosociais/internal/catalog"
	"github.com/korg1OOO/baratosociais/internal/checkout"
	"github.com/korg1OOO/baratosociais/internal/config"
	"github.com/korg1OOO/baratosociais/internal/events"
	"github.com/korg1OOO/baratosociais/internal/handler"
	"github.com/korg1OOO/baratosociais/internal/middleware"
	"github.com/korg1OOO/baratosociais/internal/model"
	"github.com/korg1OOO/baratosociais/internal/payment"
	"github.com/korg1OOO/baratosociais/internal/provider"
	"github.com/korg1OOO/baratosociais/internal/repository"
	"github.com/korg1OOO/baratosociais/internal/router"
	"github.com/korg1OOO/baratosociais/internal/service"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAPIKey        = "test-api-key"
	testWebhookSecret = "whsec-test"
)

func setupTestServer(t *testing.T, testDB *TestDB, providerURL, gatewayURL string) http.Handler {
	t.Helper()

	logger := zerolog.Nop()
	ctx := context.Background()
	minPrice := decimal.RequireFromString("1.50")
	validate := checkout.NewValidator()

	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)
	providerClient := provider.NewClient(config.ProviderConfig{URL: providerURL, APIKey: "provider-key", Timeout: 5 * time.Second}, logger)
	gateway := payment.NewGateway(config.PaymentConfig{URL: gatewayURL, Timeout: 5 * time.Second}, logger)
	snapshots := catalog.NewFileSnapshotStore(filepath.Join(t.TempDir(), "services.json.gz"), logger)

	sessions := service.NewSessionStore(time.Hour, minPrice, validate, logger)
	catalogService := service.NewCatalogService(providerClient, cache.NopCache{}, snapshots, catalog.DefaultPricing(), time.Hour, logger)
	require.NoError(t, catalogService.Load(ctx))

	cartService := service.NewCartService(sessions, catalogService, validate, logger)
	checkoutService := service.NewCheckoutService(sessions, orderRepo, gateway, events.NopPublisher{}, minPrice, 5*time.Second, logger)
	orderService := service.NewOrderService(orderRepo, providerClient, events.NopPublisher{}, logger)

	return router.New(router.Handlers{
		Health:   handler.NewHealthHandler(testDB.Pool, catalogService, logger),
		Catalog:  handler.NewCatalogHandler(catalogService, logger),
		Cart:     handler.NewCartHandler(cartService, logger),
		Checkout: handler.NewCheckoutHandler(checkoutService, logger),
		Order:    handler.NewOrderHandler(orderService, logger),
		Webhook:  handler.NewWebhookHandler(orderService, testWebhookSecret, logger),
	}, router.Options{
		APIKey:            testAPIKey,
		RequestsPerMinute: 6000,
		Burst:             1000,
	}, logger)
}

// client carries the storefront session across requests.
type client struct {
	t         *testing.T
	server    http.Handler
	sessionID string
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if c.sessionID != "" {
		req.Header.Set(middleware.SessionHeader, c.sessionID)
	}
	w := httptest.NewRecorder()
	c.server.ServeHTTP(w, req)

	if id := w.Header().Get(middleware.SessionHeader); id != "" {
		c.sessionID = id
	}
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func pixWebhook(transactionID string) map[string]any {
	return map[string]any{
		"event": "paid",
		"token": testWebhookSecret,
		"transaction": map[string]string{
			"id":     transactionID,
			"status": "completed",
		},
	}
}

// checkoutOneLine fills the cart with 1,5 thousand likes and confirms checkout.
func checkoutOneLine(t *testing.T, c *client) model.CheckoutView {
	t.Helper()

	w := c.do(http.MethodPost, "/api/cart/items", map[string]string{
		"serviceId": "api-101",
		"quantity":  "1,5",
		"link":      "https://instagram.com/p/abc",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = c.do(http.MethodPost, "/api/checkout/customer", model.Customer{
		Name:  "Ana Souza",
		Email: "ana@example.com",
		Phone: "+5511999999999",
		TaxID: "12345678909",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = c.do(http.MethodPost, "/api/checkout/confirm", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	return decode[model.CheckoutView](t, w)
}

func TestStorefrontAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	fakeProvider := NewFakeProvider(t)
	fakeGateway := NewFakeGateway(t)
	server := setupTestServer(t, testDB, fakeProvider.Server.URL, fakeGateway.Server.URL)

	t.Run("GET /health reports database and catalog", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("GET /api/catalog lists mapped services", func(t *testing.T) {
		c := &client{t: t, server: server}
		w := c.do(http.MethodGet, "/api/catalog", nil)
		require.Equal(t, http.StatusOK, w.Code)

		listing := decode[model.CatalogListing](t, w)
		require.Len(t, listing.Services, 2)
		assert.Equal(t, service.SourceProvider, listing.Status.Source)
		assert.False(t, listing.Status.Retryable)

		likes := listing.Services[0]
		assert.Equal(t, "api-101", likes.ID)
		assert.True(t, likes.Price.Equal(decimal.RequireFromString("8")))
		assert.Equal(t, "likes", likes.Category)
		assert.Equal(t, "instagram", likes.Platform)
		assert.True(t, likes.Popular)

		w = c.do(http.MethodGet, "/api/catalog?platform=tiktok", nil)
		listing = decode[model.CatalogListing](t, w)
		require.Len(t, listing.Services, 1)
		assert.Equal(t, "api-102", listing.Services[0].ID)
	})

	t.Run("checkout, payment and placement complete the order", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		before := len(fakeProvider.Placed())
		c := &client{t: t, server: server}

		view := checkoutOneLine(t, c)
		assert.Equal(t, model.CheckoutStepPaymentPresented, view.Step)
		require.NotNil(t, view.Order)
		assert.True(t, view.Order.Total.Equal(decimal.RequireFromString("12")))
		assert.Equal(t, model.OrderStatusPending, view.Order.Status)
		require.Len(t, view.Order.Lines, 1)
		txID := view.Order.Lines[0].TransactionID
		require.NotEmpty(t, txID)

		w := c.do(http.MethodPost, "/webhooks/pix", pixWebhook(txID))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		ack := decode[map[string]any](t, w)
		assert.Equal(t, true, ack["applied"])
		assert.Equal(t, string(model.OrderStatusCompleted), ack["status"])

		placed := fakeProvider.Placed()[before:]
		require.Len(t, placed, 1)
		assert.Equal(t, "101", placed[0].Service)
		assert.Equal(t, "1500", placed[0].Quantity)
		assert.Equal(t, "https://instagram.com/p/abc", placed[0].Link)

		w = c.do(http.MethodGet, "/api/orders", nil)
		require.Equal(t, http.StatusOK, w.Code)
		orders := decode[[]model.Order](t, w)
		require.Len(t, orders, 1)
		assert.Equal(t, model.OrderStatusCompleted, orders[0].Status)
		assert.Equal(t, model.LineStatusPlaced, orders[0].Lines[0].Status)
		require.NotNil(t, orders[0].Lines[0].ExternalOrderID)

		// The cart is kept until the payment view is closed
		w = c.do(http.MethodGet, "/api/cart", nil)
		assert.Len(t, decode[model.CartView](t, w).Lines, 1)

		w = c.do(http.MethodPost, "/api/checkout/close", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decode[model.CloseCheckoutResponse](t, w).CartCleared)

		w = c.do(http.MethodGet, "/api/cart", nil)
		assert.Empty(t, decode[model.CartView](t, w).Lines)
	})

	t.Run("duplicate webhook deliveries place the order once", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		before := len(fakeProvider.Placed())
		c := &client{t: t, server: server}

		view := checkoutOneLine(t, c)
		txID := view.Order.Lines[0].TransactionID

		var wg sync.WaitGroup
		codes := make([]int, 3)
		for i := range codes {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				data, _ := json.Marshal(pixWebhook(txID))
				req := httptest.NewRequest(http.MethodPost, "/webhooks/pix", bytes.NewReader(data))
				w := httptest.NewRecorder()
				server.ServeHTTP(w, req)
				codes[i] = w.Code
			}(i)
		}
		wg.Wait()

		for _, code := range codes {
			assert.Equal(t, http.StatusOK, code)
		}
		assert.Len(t, fakeProvider.Placed()[before:], 1)
	})

	t.Run("webhook with wrong token is rejected", func(t *testing.T) {
		body := pixWebhook("tx-unknown")
		body["token"] = "wrong"
		c := &client{t: t, server: server}

		w := c.do(http.MethodPost, "/webhooks/pix", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("webhook for unknown transaction returns 404", func(t *testing.T) {
		c := &client{t: t, server: server}

		w := c.do(http.MethodPost, "/webhooks/pix", pixWebhook("tx-does-not-exist"))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, model.ErrCodeUnknownTransaction, decode[model.ErrorResponse](t, w).Error)
	})

	t.Run("orders are private to their session", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		owner := &client{t: t, server: server}
		view := checkoutOneLine(t, owner)

		other := &client{t: t, server: server}
		w := other.do(http.MethodGet, "/api/orders/"+view.Order.ID.String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = owner.do(http.MethodGet, "/api/orders/"+view.Order.ID.String(), nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("admin balance requires API key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/balance", nil)
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		req = httptest.NewRequest(http.MethodGet, "/api/admin/balance", nil)
		req.Header.Set("X-API-Key", testAPIKey)
		w = httptest.NewRecorder()
		server.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		balance := decode[model.Balance](t, w)
		assert.True(t, balance.Balance.Equal(decimal.RequireFromString("100.84")))
		assert.Equal(t, "BRL", balance.Currency)
	})
}

func TestCheckoutPaymentFailure_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	fakeProvider := NewFakeProvider(t)
	failingGateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"gateway unavailable"}`, http.StatusServiceUnavailable)
	}))
	t.Cleanup(failingGateway.Close)

	server := setupTestServer(t, testDB, fakeProvider.Server.URL, failingGateway.URL)
	c := &client{t: t, server: server}

	w := c.do(http.MethodPost, "/api/cart/items", map[string]string{
		"serviceId": "api-101",
		"quantity":  "2",
		"link":      "https://instagram.com/p/xyz",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = c.do(http.MethodPost, "/api/checkout/customer", model.Customer{
		Name: "Ana Souza", Email: "ana@example.com", Phone: "+5511999999999", TaxID: "12345678909",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = c.do(http.MethodPost, "/api/checkout/confirm", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, model.ErrCodePaymentFailed, decode[model.ErrorResponse](t, w).Error)

	// Cart and customer are kept so the customer can retry
	w = c.do(http.MethodGet, "/api/cart", nil)
	assert.Len(t, decode[model.CartView](t, w).Lines, 1)

	w = c.do(http.MethodGet, "/api/checkout", nil)
	view := decode[model.CheckoutView](t, w)
	assert.Equal(t, model.CheckoutStepReviewingOrder, view.Step)
	assert.NotEmpty(t, view.Error)

	var count int
	require.NoError(t, testDB.Pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM orders").Scan(&count))
	assert.Zero(t, count)
}
