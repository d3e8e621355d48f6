package bundle

import (
	ierr "github.com/openroam/pricing/internal/errors"
	"github.com/openroam/pricing/internal/types"
	"github.com/shopspring/decimal"
)

// Bundle is an immutable catalog snapshot of a purchasable data plan. The
// engine only ever reads bundles; Price is the provider cost, not the sale
// price.
type Bundle struct {
	ID           string          `json:"id"`
	GroupName    string          `json:"group_name"`
	Countries    []string        `json:"countries"`
	Region       string          `json:"region"`
	ValidityDays int             `json:"validity_days"`
	Price        decimal.Decimal `json:"price"`
	IsUnlimited  bool            `json:"is_unlimited"`
	Currency     string          `json:"currency"`
	types.BaseModel
}

// Validate validates the bundle
func (b *Bundle) Validate() error {
	if b.GroupName == "" {
		return ierr.NewError("group_name is required").Mark(ierr.ErrValidation)
	}
	if b.ValidityDays <= 0 {
		return ierr.NewError("validity_days must be positive").Mark(ierr.ErrValidation)
	}
	if b.Price.IsNegative() {
		return ierr.NewError("price cannot be negative").Mark(ierr.ErrValidation)
	}
	return nil
}

// DailyRate returns the provider cost per validity day.
func (b *Bundle) DailyRate() decimal.Decimal {
	if b.ValidityDays == 0 {
		return decimal.Zero
	}
	return b.Price.Div(decimal.NewFromInt(int64(b.ValidityDays)))
}
