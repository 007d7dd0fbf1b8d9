package model

// Customer holds the contact data collected at checkout.
type Customer struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required"`
	Phone string `json:"phone" validate:"required"`
	TaxID string `json:"taxId" validate:"required"`
}
