package dto

import (
	"github.com/go-playground/validator/v10"
	"github.com/openroam/pricing/internal/domain/bundle"
	"github.com/openroam/pricing/internal/engine"
	ierr "github.com/openroam/pricing/internal/errors"
	"github.com/openroam/pricing/internal/types"
)

var validate = validator.New()

// CalculatePricingRequest is the API-facing pricing request.
type CalculatePricingRequest struct {
	Group         string `json:"group" validate:"required"`
	RequestedDays int    `json:"requested_days" validate:"required,gt=0"`
	Country       string `json:"country,omitempty" validate:"omitempty,len=2"`
	Region        string `json:"region,omitempty"`
	PaymentMethod string `json:"payment_method" validate:"required"`
	StrategyID    string `json:"strategy_id,omitempty"`
	CouponCode    string `json:"coupon_code,omitempty"`
	UserID        string `json:"user_id,omitempty"`
	UserEmail     string `json:"user_email,omitempty" validate:"omitempty,email"`
	Quantity      int    `json:"quantity,omitempty" validate:"omitempty,gte=1"`
}

// Validate validates the request
func (r *CalculatePricingRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid pricing request").
			Mark(ierr.ErrValidation)
	}
	return r.ToRequestFacts().Validate()
}

// ToRequestFacts converts the request into the engine's input facts.
func (r *CalculatePricingRequest) ToRequestFacts() *types.RequestFacts {
	return &types.RequestFacts{
		Group:         r.Group,
		RequestedDays: r.RequestedDays,
		Country:       r.Country,
		Region:        r.Region,
		PaymentMethod: types.PaymentMethod(r.PaymentMethod),
		StrategyID:    r.StrategyID,
		CouponCode:    r.CouponCode,
		UserID:        r.UserID,
		UserEmail:     r.UserEmail,
		Quantity:      r.Quantity,
	}
}

// PricingResponse is the caller-facing pricing result: the chosen bundle,
// the derived price breakdown and the applied-rule audit trail explaining it.
type PricingResponse struct {
	SelectedBundle *bundle.Bundle       `json:"selected_bundle"`
	RequestedDays  int                  `json:"requested_days"`
	UnusedDays     int                  `json:"unused_days"`
	IsExactMatch   bool                 `json:"is_exact_match"`
	Pricing        *engine.Breakdown    `json:"pricing"`
	AppliedRules   []engine.AppliedRule `json:"applied_rules"`
}
