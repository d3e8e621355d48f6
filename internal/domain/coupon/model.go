package coupon

import (
	"time"

	ierr "github.com/openroam/pricing/internal/errors"
	"github.com/openroam/pricing/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Coupon is a redeemable discount code. It is loaded fresh per request and
// only consulted, never mutated by the engine.
type Coupon struct {
	ID                  string             `json:"id"`
	Code                string             `json:"code"`
	DiscountType        types.DiscountType `json:"discount_type"`
	DiscountValue       decimal.Decimal    `json:"discount_value"`
	MinSpend            *decimal.Decimal   `json:"min_spend,omitempty"`
	MaxDiscount         *decimal.Decimal   `json:"max_discount,omitempty"`
	MaxTotalUsage       *int               `json:"max_total_usage,omitempty"`
	MaxPerUser          *int               `json:"max_per_user,omitempty"`
	ValidFrom           *time.Time         `json:"valid_from,omitempty"`
	ValidUntil          *time.Time         `json:"valid_until,omitempty"`
	AllowedBundleGroups []string           `json:"allowed_bundle_groups,omitempty"`
	AllowedRegions      []string           `json:"allowed_regions,omitempty"`
	IsActive            bool               `json:"is_active"`
	types.BaseModel
}

// Validate validates the coupon definition
func (c *Coupon) Validate() error {
	if c.Code == "" {
		return ierr.NewError("code is required").Mark(ierr.ErrValidation)
	}
	if c.DiscountType != types.DiscountTypePercentage && c.DiscountType != types.DiscountTypeFixedAmount {
		return ierr.NewErrorf("invalid discount type: %s", c.DiscountType).Mark(ierr.ErrValidation)
	}
	if c.DiscountValue.IsNegative() {
		return ierr.NewError("discount_value cannot be negative").Mark(ierr.ErrValidation)
	}
	return nil
}

// AppliesTo reports whether the coupon's bundle/region allow-lists admit the
// given bundle group and region. Empty allow-lists admit everything.
func (c *Coupon) AppliesTo(groupName, region string) bool {
	if len(c.AllowedBundleGroups) > 0 && !lo.Contains(c.AllowedBundleGroups, groupName) {
		return false
	}
	if len(c.AllowedRegions) > 0 && !lo.Contains(c.AllowedRegions, region) {
		return false
	}
	return true
}

// Usage is one recorded redemption of a coupon.
type Usage struct {
	ID               string          `json:"id"`
	CouponID         string          `json:"coupon_id"`
	UserID           string          `json:"user_id"`
	OriginalAmount   decimal.Decimal `json:"original_amount"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
	DiscountedAmount decimal.Decimal `json:"discounted_amount"`
	CreatedAt        time.Time       `json:"created_at"`
}

// UsageCounts aggregates redemption counters for a coupon.
type UsageCounts struct {
	Total  int `json:"total"`
	ByUser int `json:"by_user"`
}

// ValidationResult is the outcome of coupon validation. An invalid coupon is
// a value, not an error: pricing proceeds without the discount.
type ValidationResult struct {
	Valid         bool               `json:"valid"`
	FailureReason string             `json:"failure_reason,omitempty"`
	Coupon        *Coupon            `json:"-"`
	DiscountType  types.DiscountType `json:"discount_type,omitempty"`
	DiscountValue decimal.Decimal    `json:"discount_value"`
	MinSpend      *decimal.Decimal   `json:"min_spend,omitempty"`
	MaxDiscount   *decimal.Decimal   `json:"max_discount,omitempty"`
}

// Invalid returns a failed validation result with a reason.
func Invalid(reason string) *ValidationResult {
	return &ValidationResult{Valid: false, FailureReason: reason, DiscountValue: decimal.Zero}
}

// CorporateEmailDiscount grants a percentage discount to users whose email
// belongs to a registered corporate domain.
type CorporateEmailDiscount struct {
	ID                 string           `json:"id"`
	Domain             string           `json:"domain"`
	DiscountPercentage decimal.Decimal  `json:"discount_percentage"`
	MaxDiscount        *decimal.Decimal `json:"max_discount,omitempty"`
	MinSpend           *decimal.Decimal `json:"min_spend,omitempty"`
	IsActive           bool             `json:"is_active"`
	types.BaseModel
}

// VolumeTier grants a percentage discount to requests whose quantity falls
// within [MinQuantity, MaxQuantity]. A nil MaxQuantity is an open upper bound.
type VolumeTier struct {
	ID                 string          `json:"id"`
	MinQuantity        int             `json:"min_quantity"`
	MaxQuantity        *int            `json:"max_quantity,omitempty"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	types.BaseModel
}

// Contains reports whether the quantity falls within the tier's bounds.
func (t *VolumeTier) Contains(quantity int) bool {
	if quantity < t.MinQuantity {
		return false
	}
	return t.MaxQuantity == nil || quantity <= *t.MaxQuantity
}

// ResolvedDiscount is the single general-discount source chosen for one
// request after applying the priority rule (coupon > corporate > volume).
type ResolvedDiscount struct {
	Eligible      bool                 `json:"eligible"`
	Source        types.DiscountSource `json:"source,omitempty"`
	DiscountType  types.DiscountType   `json:"discount_type,omitempty"`
	DiscountValue decimal.Decimal      `json:"discount_value"`
	MinSpend      *decimal.Decimal     `json:"min_spend,omitempty"`
	MaxDiscount   *decimal.Decimal     `json:"max_discount,omitempty"`
	CouponID      string               `json:"coupon_id,omitempty"`
	Reason        string               `json:"reason,omitempty"`
}
