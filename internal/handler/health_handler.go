package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/korg1OOO/baratosociais/internal/service"

	"github.com/rs/zerolog"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness endpoint.
type HealthHandler struct {
	db      Pinger
	catalog service.CatalogService
	logger  zerolog.Logger
}

// NewHealthHandler creates a new health handler. db may be nil.
func NewHealthHandler(db Pinger, catalog service.CatalogService, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		db:      db,
		catalog: catalog,
		logger:  logger.With().Str("handler", "health").Logger(),
	}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Catalog  int    `json:"catalogServices"`
}

// ServeHTTP handles GET /health requests. The catalog never makes the
// service unhealthy since it degrades to the last known list.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "healthy", Database: "up"}
	if h.catalog != nil {
		resp.Catalog = h.catalog.Status().Count
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.logger.Error().Err(err).Msg("database ping failed")
			resp.Status = "unhealthy"
			resp.Database = "down"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
