package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/korg1OOO/baratosociais/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container with the schema migrated.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	logger := zerolog.Nop()
	if err := database.Migrate(connStr, logger); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"order_lines", "orders"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}

// FakeProvider is an in-process stand-in for the engagement provider API.
type FakeProvider struct {
	Server *httptest.Server

	mu        sync.Mutex
	placed    []PlacedOrder
	nextOrder atomic.Int64
}

// PlacedOrder is an order received by the fake provider.
type PlacedOrder struct {
	Service  string
	Link     string
	Quantity string
}

// NewFakeProvider serves a two-service catalog and accepts every order.
func NewFakeProvider(t *testing.T) *FakeProvider {
	t.Helper()

	p := &FakeProvider{}
	p.nextOrder.Store(9000)

	p.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")

		switch r.PostForm.Get("action") {
		case "services":
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"service": 101, "name": "Curtidas Brasileiras Instagram", "category": "Instagram Curtidas", "rate": "3.20", "min": "1000", "max": "10000", "refill": true, "cancel": false},
				{"service": "102", "name": "Seguidores TikTok Reais", "category": "TikTok Seguidores", "rate": "12.00", "min": "1000", "max": "50000", "refill": false, "cancel": true},
			})
		case "add":
			p.mu.Lock()
			p.placed = append(p.placed, PlacedOrder{
				Service:  r.PostForm.Get("service"),
				Link:     r.PostForm.Get("link"),
				Quantity: r.PostForm.Get("quantity"),
			})
			p.mu.Unlock()
			_ = json.NewEncoder(w).Encode(map[string]any{"order": p.nextOrder.Add(1)})
		case "balance":
			_ = json.NewEncoder(w).Encode(map[string]string{"balance": "100.84", "currency": "BRL"})
		case "status":
			_ = json.NewEncoder(w).Encode(map[string]string{
				"charge": "2.50", "start_count": "120", "status": "In progress", "remains": "300", "currency": "BRL",
			})
		default:
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Incorrect request"})
		}
	}))
	t.Cleanup(p.Server.Close)

	return p
}

// Placed returns the orders placed so far.
func (p *FakeProvider) Placed() []PlacedOrder {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PlacedOrder(nil), p.placed...)
}

// FakeGateway is an in-process stand-in for the Pix gateway.
type FakeGateway struct {
	Server *httptest.Server
	next   atomic.Int64
}

// NewFakeGateway answers every charge request with one charge per item.
func NewFakeGateway(t *testing.T) *FakeGateway {
	t.Helper()

	g := &FakeGateway{}
	g.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/charges" {
			http.NotFound(w, r)
			return
		}

		var req struct {
			Items []json.RawMessage `json:"items"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		charges := make([]map[string]string, len(req.Items))
		for i := range req.Items {
			id := "tx-" + strconv.FormatInt(g.next.Add(1), 10)
			charges[i] = map[string]string{
				"transactionId": id,
				"qrCodeImage":   "data:image/png;base64,AAAA",
				"pixPayload":    "00020126580014BR.GOV.BCB.PIX-" + id,
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(charges)
	}))
	t.Cleanup(g.Server.Close)

	return g
}
