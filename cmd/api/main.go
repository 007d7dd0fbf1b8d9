package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/korg1OOO/baratosociais/internal/cache"
	"github.com/korg1OOO/baratosociais/internal/catalog"
	"github.com/korg1OOO/baratosociais/internal/checkout"
	"github.com/korg1OOO/baratosociais/internal/config"
	"github.com/korg1OOO/baratosociais/internal/database"
	"github.com/korg1OOO/baratosociais/internal/events"
	"github.com/korg1OOO/baratosociais/internal/handler"
	"github.com/korg1OOO/baratosociais/internal/payment"
	"github.com/korg1OOO/baratosociais/internal/provider"
	"github.com/korg1OOO/baratosociais/internal/repository"
	"github.com/korg1OOO/baratosociais/internal/router"
	"github.com/korg1OOO/baratosociais/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const snapshotObject = "services.json.gz"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting baratosociais storefront API")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Apply schema migrations before serving
	if err := database.Migrate(cfg.Database.ConnectionString(), logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	orderRepo := repository.NewOrderRepository(pool, logger)

	// Outbound collaborators
	providerClient := provider.NewClient(cfg.Provider, logger)
	gateway := payment.NewGateway(cfg.Payment, logger)

	catalogCache, closeCache := newCatalogCache(ctx, cfg, logger)
	defer closeCache()

	snapshots := newSnapshotStore(ctx, cfg, logger)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publishing order status events to kafka")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close event publisher")
		}
	}()

	pricing := catalog.Pricing{
		Markup:           decimal.NewFromFloat(cfg.Pricing.Markup),
		PopularThreshold: decimal.NewFromFloat(cfg.Pricing.PopularThreshold),
	}
	minPrice := decimal.NewFromFloat(cfg.Pricing.MinimumPrice)
	validate := checkout.NewValidator()

	// Initialize services
	sessions := service.NewSessionStore(cfg.Session.TTL, minPrice, validate, logger)
	catalogService := service.NewCatalogService(providerClient, catalogCache, snapshots, pricing, cfg.Catalog.RefreshInterval, logger)
	cartService := service.NewCartService(sessions, catalogService, validate, logger)
	checkoutService := service.NewCheckoutService(sessions, orderRepo, gateway, publisher, minPrice, cfg.Payment.Timeout, logger)
	orderService := service.NewOrderService(orderRepo, providerClient, publisher, logger)

	// The storefront serves a degraded catalog rather than refusing to start
	if err := catalogService.Load(ctx); err != nil {
		logger.Warn().Err(err).Msg("initial catalog load failed, serving fallback")
	}
	go catalogService.Run(ctx)
	go sessions.Run(ctx, time.Minute)

	// Initialize HTTP handlers
	handlers := router.Handlers{
		Health:   handler.NewHealthHandler(pool, catalogService, logger),
		Catalog:  handler.NewCatalogHandler(catalogService, logger),
		Cart:     handler.NewCartHandler(cartService, logger),
		Checkout: handler.NewCheckoutHandler(checkoutService, logger),
		Order:    handler.NewOrderHandler(orderService, logger),
		Webhook:  handler.NewWebhookHandler(orderService, cfg.Payment.WebhookSecret, logger),
	}

	// Initialize router
	mux := router.New(handlers, router.Options{
		APIKey:            cfg.Auth.APIKey,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Burst:             cfg.RateLimit.Burst,
	}, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Stop background refreshers before draining requests
		cancel()

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newCatalogCache connects the shared Redis catalog cache, or returns a no-op
// cache when Redis is disabled or unreachable.
func newCatalogCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (cache.CatalogCache, func()) {
	if !cfg.Redis.Enabled {
		logger.Info().Msg("redis disabled, catalog cache is local only")
		return cache.NopCache{}, func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, catalog cache disabled")
		_ = client.Close()
		return cache.NopCache{}, func() {}
	}

	logger.Info().Str("addr", cfg.Redis.Addr).Msg("catalog cache connected to redis")
	return cache.NewRedisCache(client, cfg.Catalog.CacheTTL), func() {
		if err := client.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close redis client")
		}
	}
}

// newSnapshotStore builds the last-known-good catalog store: S3 when enabled,
// always backed by the local file.
func newSnapshotStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) catalog.SnapshotStore {
	local := catalog.NewFileSnapshotStore(cfg.Catalog.SnapshotPath, logger)

	var remote catalog.SnapshotStore
	if cfg.S3.Enabled {
		s3Store, err := catalog.NewS3SnapshotStore(ctx, cfg.S3.Bucket, cfg.S3.Region, path.Join(cfg.S3.Prefix, snapshotObject), logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 snapshot store, falling back to local file system only")
		} else {
			remote = s3Store
		}
	} else {
		logger.Info().Msg("using local file system for catalog snapshots (S3 disabled)")
	}

	return catalog.NewFallbackSnapshotStore(remote, local, cfg.S3.Enabled, logger)
}
