package handler

import (
	"net/http"

	"github.com/korg1OOO/baratosociais/internal/middleware"
	"github.com/korg1OOO/baratosociais/internal/model"
	"github.com/korg1OOO/baratosociais/internal/service"

	"github.com/rs/zerolog"
)

// CheckoutHandler handles checkout flow HTTP requests.
type CheckoutHandler struct {
	service service.CheckoutService
	logger  zerolog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(service service.CheckoutService, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		logger:  logger.With().Str("handler", "checkout").Logger(),
	}
}

// Get handles GET /api/checkout requests.
func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Get(r.Context(), middleware.SessionID(r.Context())))
}

// SubmitCustomer handles POST /api/checkout/customer requests.
func (h *CheckoutHandler) SubmitCustomer(w http.ResponseWriter, r *http.Request) {
	var customer model.Customer
	if err := decodeJSON(r, &customer); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	view, err := h.service.SubmitCustomer(r.Context(), middleware.SessionID(r.Context()), customer)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// Back handles POST /api/checkout/back requests.
func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Back(r.Context(), middleware.SessionID(r.Context()))
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Confirm handles POST /api/checkout/confirm requests. On success the view
// carries the order with one Pix QR code per line.
func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Confirm(r.Context(), middleware.SessionID(r.Context()))
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// Close handles POST /api/checkout/close requests.
func (h *CheckoutHandler) Close(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Close(r.Context(), middleware.SessionID(r.Context())))
}
