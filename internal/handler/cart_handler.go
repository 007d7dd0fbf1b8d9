package handler

import (
	"net/http"

	"github.com/korg1OOO/baratosociais/internal/middleware"
	"github.com/korg1OOO/baratosociais/internal/model"
	"github.com/korg1OOO/baratosociais/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// CartHandler handles session cart HTTP requests.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

// Get handles GET /api/cart requests.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Get(r.Context(), middleware.SessionID(r.Context())))
}

// Add handles POST /api/cart/items requests.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req model.AddToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	view, err := h.service.Add(r.Context(), middleware.SessionID(r.Context()), req)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

// Update handles PUT /api/cart/items/{serviceId} requests.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateCartLineRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	view, err := h.service.SetQuantity(r.Context(), middleware.SessionID(r.Context()), chi.URLParam(r, "serviceId"), req)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// Remove handles DELETE /api/cart/items/{serviceId}?link= requests.
// Without a link every line of the service is removed.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	view := h.service.Remove(
		r.Context(),
		middleware.SessionID(r.Context()),
		chi.URLParam(r, "serviceId"),
		r.URL.Query().Get("link"),
	)
	writeJSON(w, http.StatusOK, view)
}
