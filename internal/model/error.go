package model

import "fmt"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeMissingField        = "MISSING_FIELD"
	ErrCodeServiceNotFound     = "SERVICE_NOT_FOUND"
	ErrCodeInvalidQuantity     = "INVALID_QUANTITY"
	ErrCodeMissingLink         = "MISSING_LINK"
	ErrCodeCartLineNotFound    = "CART_LINE_NOT_FOUND"
	ErrCodeEmptyCart           = "EMPTY_CART"
	ErrCodeInvalidCheckoutStep = "INVALID_CHECKOUT_STEP"
	ErrCodePaymentFailed       = "PAYMENT_FAILED"
	ErrCodeOrderNotFound       = "ORDER_NOT_FOUND"
	ErrCodeOrderNotPlaced      = "ORDER_NOT_PLACED"
	ErrCodeUnknownTransaction  = "UNKNOWN_TRANSACTION"
	ErrCodeCatalogUnavailable  = "CATALOG_UNAVAILABLE"
	ErrCodeProviderError       = "PROVIDER_ERROR"
	ErrCodeInvalidWebhookToken = "INVALID_WEBHOOK_TOKEN"
	ErrCodeRateLimited         = "RATE_LIMITED"
	ErrCodeUnauthorised        = "UNAUTHORIZED"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// DomainError is a business error carrying a stable API code.
// Two domain errors match under errors.Is when their codes are equal.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a domain error with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithMessage returns a copy of the error carrying a more specific message.
func (e *DomainError) WithMessage(format string, args ...any) *DomainError {
	return &DomainError{Code: e.Code, Message: fmt.Sprintf(format, args...), Err: e.Err}
}

// Wrap returns a copy of the error with cause attached.
func (e *DomainError) Wrap(cause error) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, Err: cause}
}

// Common domain errors
var (
	ErrMissingField        = NewDomainError(ErrCodeMissingField, "A required field is missing")
	ErrServiceNotFound     = NewDomainError(ErrCodeServiceNotFound, "Service not found in catalog")
	ErrInvalidQuantity     = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be a number")
	ErrMissingLink         = NewDomainError(ErrCodeMissingLink, "A destination link is required")
	ErrCartLineNotFound    = NewDomainError(ErrCodeCartLineNotFound, "Cart line not found")
	ErrEmptyCart           = NewDomainError(ErrCodeEmptyCart, "Cart is empty")
	ErrInvalidCheckoutStep = NewDomainError(ErrCodeInvalidCheckoutStep, "Operation not allowed at the current checkout step")
	ErrPaymentFailed       = NewDomainError(ErrCodePaymentFailed, "Failed to create Pix payment, please try again")
	ErrOrderNotFound       = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrOrderNotPlaced      = NewDomainError(ErrCodeOrderNotPlaced, "Order has no lines placed with the provider")
	ErrUnknownTransaction  = NewDomainError(ErrCodeUnknownTransaction, "No order matches the payment transaction")
	ErrCatalogUnavailable  = NewDomainError(ErrCodeCatalogUnavailable, "Catalog could not be loaded, please retry")
	ErrProviderError       = NewDomainError(ErrCodeProviderError, "Provider request failed")
	ErrInvalidWebhookToken = NewDomainError(ErrCodeInvalidWebhookToken, "Invalid webhook token")
)
