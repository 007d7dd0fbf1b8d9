package router

import (
	"net/http"
	"time"

	"github.com/korg1OOO/baratosociais/internal/handler"
	"github.com/korg1OOO/baratosociais/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handlers groups the HTTP handlers served by the router.
type Handlers struct {
	Health   *handler.HealthHandler
	Catalog  *handler.CatalogHandler
	Cart     *handler.CartHandler
	Checkout *handler.CheckoutHandler
	Order    *handler.OrderHandler
	Webhook  *handler.WebhookHandler
}

// Options configures authentication and rate limiting.
type Options struct {
	APIKey            string
	RequestsPerMinute int
	Burst             int
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, opts Options, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Recovery runs inside Logging so panics are logged with a 500 status
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-API-Key", middleware.SessionHeader},
		ExposedHeaders:   []string{middleware.SessionHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoint (no authentication required)
	r.Get("/health", h.Health.ServeHTTP)

	limiter := middleware.NewRateLimiter(opts.RequestsPerMinute, opts.Burst)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(limiter, logger))
		r.Use(chimiddleware.Timeout(60 * time.Second))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session)

			r.Get("/catalog", h.Catalog.List)
			r.Get("/catalog/status", h.Catalog.Status)
			r.Get("/catalog/{id}", h.Catalog.Get)

			r.Get("/cart", h.Cart.Get)
			r.Post("/cart/items", h.Cart.Add)
			r.Put("/cart/items/{serviceId}", h.Cart.Update)
			r.Delete("/cart/items/{serviceId}", h.Cart.Remove)

			r.Get("/checkout", h.Checkout.Get)
			r.Post("/checkout/customer", h.Checkout.SubmitCustomer)
			r.Post("/checkout/back", h.Checkout.Back)
			r.Post("/checkout/confirm", h.Checkout.Confirm)
			r.Post("/checkout/close", h.Checkout.Close)

			r.Get("/orders", h.Order.List)
			r.Get("/orders/{id}", h.Order.GetByID)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(opts.APIKey, logger))

			r.Post("/catalog/refresh", h.Catalog.Refresh)
			r.Get("/balance", h.Order.Balance)
			r.Get("/orders/{id}/provider-status", h.Order.ProviderStatus)
			r.Post("/orders/{id}/refill", h.Order.Refill)
			r.Post("/orders/{id}/cancel", h.Order.Cancel)
		})
	})

	r.With(middleware.RateLimit(limiter, logger)).Post("/webhooks/pix", h.Webhook.Pix)

	return otelhttp.NewHandler(r, "baratosociais")
}
