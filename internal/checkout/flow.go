// Package checkout implements the checkout state machine:
// collecting_customer -> reviewing_order -> payment_presented.
package checkout

import (
	"errors"
	"reflect"
	"strings"

	"github.com/korg1OOO/baratosociais/internal/model"

	"github.com/go-playground/validator/v10"
)

// Flow is one session's checkout. It is not safe for concurrent use.
type Flow struct {
	step     model.CheckoutStep
	customer *model.Customer
	order    *model.Order
	lastErr  string
	validate *validator.Validate
}

// NewFlow creates a flow in the collecting_customer step.
func NewFlow(validate *validator.Validate) *Flow {
	return &Flow{
		step:     model.CheckoutStepCollectingCustomer,
		validate: validate,
	}
}

// NewValidator returns a validator reporting fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Step returns the current step.
func (f *Flow) Step() model.CheckoutStep {
	return f.step
}

// Customer returns the submitted customer, if any.
func (f *Flow) Customer() (model.Customer, bool) {
	if f.customer == nil {
		return model.Customer{}, false
	}
	return *f.customer, true
}

// SubmitCustomer stores the customer data and advances to review.
// Every field must be non-blank.
func (f *Flow) SubmitCustomer(c model.Customer) error {
	if f.step != model.CheckoutStepCollectingCustomer {
		return model.ErrInvalidCheckoutStep.WithMessage("Customer data can only be submitted before review")
	}

	c = model.Customer{
		Name:  strings.TrimSpace(c.Name),
		Email: strings.TrimSpace(c.Email),
		Phone: strings.TrimSpace(c.Phone),
		TaxID: strings.TrimSpace(c.TaxID),
	}

	if err := f.validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return model.ErrMissingField.WithMessage("Missing required fields: %s", strings.Join(fields, ", "))
		}
		return model.ErrMissingField.Wrap(err)
	}

	f.customer = &c
	f.lastErr = ""
	f.step = model.CheckoutStepReviewingOrder
	return nil
}

// Back returns from review to customer collection, keeping the entered data.
func (f *Flow) Back() error {
	if f.step != model.CheckoutStepReviewingOrder {
		return model.ErrInvalidCheckoutStep.WithMessage("Can only go back from the review step")
	}
	f.step = model.CheckoutStepCollectingCustomer
	f.lastErr = ""
	return nil
}

// ReadyForPayment returns the customer when the flow may create a payment.
func (f *Flow) ReadyForPayment() (model.Customer, error) {
	if f.step != model.CheckoutStepReviewingOrder || f.customer == nil {
		return model.Customer{}, model.ErrInvalidCheckoutStep.WithMessage("Order must be reviewed before payment")
	}
	return *f.customer, nil
}

// Present stores the confirmed order with its payment references and
// advances to payment_presented.
func (f *Flow) Present(o model.Order) error {
	if f.step != model.CheckoutStepReviewingOrder {
		return model.ErrInvalidCheckoutStep.WithMessage("Order must be reviewed before payment")
	}
	f.order = &o
	f.lastErr = ""
	f.step = model.CheckoutStepPaymentPresented
	return nil
}

// Fail records a payment error. The flow stays in review so the customer can retry.
func (f *Flow) Fail(err error) {
	var de *model.DomainError
	if errors.As(err, &de) {
		f.lastErr = de.Message
		return
	}
	f.lastErr = model.ErrPaymentFailed.Message
}

// Close ends the flow and resets it. It reports whether the cart must be
// cleared, which is only the case once payment has been presented.
func (f *Flow) Close() bool {
	clearCart := f.step == model.CheckoutStepPaymentPresented
	f.step = model.CheckoutStepCollectingCustomer
	f.customer = nil
	f.order = nil
	f.lastErr = ""
	return clearCart
}

// View returns the read model of the flow.
func (f *Flow) View() model.CheckoutView {
	v := model.CheckoutView{Step: f.step, Error: f.lastErr}
	if f.customer != nil {
		c := *f.customer
		v.Customer = &c
	}
	if f.order != nil {
		o := *f.order
		v.Order = &o
	}
	return v
}
