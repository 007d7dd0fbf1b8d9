package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/korg1OOO/baratosociais/internal/model"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code, code and message.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, logger zerolog.Logger) {
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Str("code", code).Str("error", message).Int("status", status).Msg("handler error")

	writeJSON(w, status, model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: chimiddleware.GetReqID(r.Context()),
	})
}

// writeDomainError maps err onto an HTTP status. Errors that are not domain
// errors are reported as internal without exposing their text.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	var de *model.DomainError
	if !errors.As(err, &de) {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("unexpected error")
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", logger)
		return
	}
	if de.Err != nil {
		logger.Debug().Err(de.Err).Str("code", de.Code).Msg("domain error cause")
	}
	writeError(w, r, statusFor(de.Code), de.Code, de.Message, logger)
}

func statusFor(code string) int {
	switch code {
	case model.ErrCodeInvalidJSON,
		model.ErrCodeMissingField,
		model.ErrCodeInvalidQuantity,
		model.ErrCodeMissingLink,
		model.ErrCodeEmptyCart:
		return http.StatusBadRequest
	case model.ErrCodeServiceNotFound,
		model.ErrCodeCartLineNotFound,
		model.ErrCodeOrderNotFound,
		model.ErrCodeUnknownTransaction:
		return http.StatusNotFound
	case model.ErrCodeInvalidCheckoutStep, model.ErrCodeOrderNotPlaced:
		return http.StatusConflict
	case model.ErrCodeInvalidWebhookToken, model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case model.ErrCodePaymentFailed, model.ErrCodeProviderError:
		return http.StatusBadGateway
	case model.ErrCodeCatalogUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes a size-limited request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "invalid request body").Wrap(err)
	}
	return nil
}
