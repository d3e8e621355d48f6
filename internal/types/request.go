package types

import (
	ierr "github.com/openroam/pricing/internal/errors"
)

// RequestFacts is the caller-supplied input to one pricing computation.
// Exactly one of Country or Region must be set.
type RequestFacts struct {
	Group         string        `json:"group"`
	RequestedDays int           `json:"requested_days"`
	Country       string        `json:"country,omitempty"`
	Region        string        `json:"region,omitempty"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	StrategyID    string        `json:"strategy_id,omitempty"`
	CouponCode    string        `json:"coupon_code,omitempty"`
	UserID        string        `json:"user_id,omitempty"`
	UserEmail     string        `json:"user_email,omitempty"`
	Quantity      int           `json:"quantity,omitempty"`
}

// Validate validates the request facts
func (f *RequestFacts) Validate() error {
	if f.Group == "" {
		return ierr.NewError("group is required").
			WithHint("Bundle group is required").
			Mark(ierr.ErrValidation)
	}
	if f.RequestedDays <= 0 {
		return ierr.NewError("requested_days must be positive").
			WithHint("Requested duration must be at least one day").
			Mark(ierr.ErrValidation)
	}
	if (f.Country == "") == (f.Region == "") {
		return ierr.NewError("exactly one of country or region is required").
			WithHint("Provide either a country or a region, not both").
			Mark(ierr.ErrValidation)
	}
	if err := f.PaymentMethod.Validate(); err != nil {
		return err
	}
	if f.Quantity < 0 {
		return ierr.NewError("quantity cannot be negative").
			WithHint("Quantity must be at least 1").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// GetQuantity returns the effective quantity, defaulting to 1.
func (f *RequestFacts) GetQuantity() int {
	if f.Quantity <= 0 {
		return 1
	}
	return f.Quantity
}
