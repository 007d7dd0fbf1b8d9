package model

// CheckoutStep is a state of the checkout flow.
type CheckoutStep string

const (
	CheckoutStepCollectingCustomer CheckoutStep = "collecting_customer"
	CheckoutStepReviewingOrder     CheckoutStep = "reviewing_order"
	CheckoutStepPaymentPresented   CheckoutStep = "payment_presented"
)

// CheckoutView is the read model of a session's checkout flow.
type CheckoutView struct {
	Step     CheckoutStep `json:"step"`
	Customer *Customer    `json:"customer,omitempty"`
	Order    *Order       `json:"order,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// CloseCheckoutResponse reports the outcome of closing the checkout flow.
type CloseCheckoutResponse struct {
	CartCleared bool         `json:"cartCleared"`
	Checkout    CheckoutView `json:"checkout"`
}
