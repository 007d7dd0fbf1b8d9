package handler

import (
	"net/http"

	"github.com/korg1OOO/baratosociais/internal/catalog"
	"github.com/korg1OOO/baratosociais/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// CatalogHandler handles catalog HTTP requests.
type CatalogHandler struct {
	service service.CatalogService
	logger  zerolog.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(service service.CatalogService, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger.With().Str("handler", "catalog").Logger(),
	}
}

// List handles GET /api/catalog?search=&category=&platform= requests.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	listing := h.service.List(r.Context(), catalog.Query{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Platform: q.Get("platform"),
	})
	writeJSON(w, http.StatusOK, listing)
}

// Get handles GET /api/catalog/{id} requests.
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	svc, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

// Status handles GET /api/catalog/status requests.
func (h *CatalogHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Status())
}

// Refresh handles POST /api/admin/catalog/refresh requests.
func (h *CatalogHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Refresh(r.Context()); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Status())
}
