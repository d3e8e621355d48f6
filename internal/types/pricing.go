package types

import (
	"fmt"
	"strings"

	ierr "github.com/openroam/pricing/internal/errors"
	"github.com/samber/lo"
)

// PricingEventType identifies which pipeline stage consumes an event emitted
// by a matched rule.
type PricingEventType string

const (
	EventSetBasePrice               PricingEventType = "set-base-price"
	EventApplyMarkup                PricingEventType = "apply-markup"
	EventApplyUnusedDaysDiscount    PricingEventType = "apply-unused-days-discount"
	EventApplyDiscount              PricingEventType = "apply-discount"
	EventApplyProfitConstraint      PricingEventType = "apply-profit-constraint"
	EventApplyProcessingFee         PricingEventType = "apply-processing-fee"
	EventApplyPsychologicalRounding PricingEventType = "apply-psychological-rounding"
)

// PipelineStageOrder is the canonical stage order the pipeline folds events
// in. Rule priority never reorders stages, only the pool within one stage.
var PipelineStageOrder = []PricingEventType{
	EventSetBasePrice,
	EventApplyMarkup,
	EventApplyUnusedDaysDiscount,
	EventApplyDiscount,
	EventApplyProfitConstraint,
	EventApplyProcessingFee,
	EventApplyPsychologicalRounding,
}

// Validate checks the event type is one the pipeline knows how to process.
func (t PricingEventType) Validate() error {
	if lo.Contains(PipelineStageOrder, t) {
		return nil
	}
	return ierr.NewErrorf("unknown pricing event type: %s", t).
		WithHint(fmt.Sprintf("Event type must be one of: %s", joinEventTypes(PipelineStageOrder))).
		Mark(ierr.ErrValidation)
}

func joinEventTypes(ts []PricingEventType) string {
	return strings.Join(lo.Map(ts, func(t PricingEventType, _ int) string { return string(t) }), ", ")
}

// RuleCategory classifies an applied rule in the audit trail.
type RuleCategory string

const (
	RuleCategoryBundleAdjustment RuleCategory = "BUNDLE_ADJUSTMENT"
	RuleCategoryDiscount         RuleCategory = "DISCOUNT"
	RuleCategoryFee              RuleCategory = "FEE"
	RuleCategoryConstraint       RuleCategory = "CONSTRAINT"
)

// CategoryForEvent maps a pipeline event type to its audit category.
func CategoryForEvent(t PricingEventType) RuleCategory {
	switch t {
	case EventApplyDiscount, EventApplyUnusedDaysDiscount:
		return RuleCategoryDiscount
	case EventApplyProcessingFee:
		return RuleCategoryFee
	case EventApplyProfitConstraint, EventApplyPsychologicalRounding:
		return RuleCategoryConstraint
	default:
		return RuleCategoryBundleAdjustment
	}
}

// PaymentMethod determines the processing fee rate applied in the fee stage.
type PaymentMethod string

const (
	PaymentMethodIsraeliCard       PaymentMethod = "ISRAELI_CARD"
	PaymentMethodInternationalCard PaymentMethod = "INTERNATIONAL_CARD"
	PaymentMethodAmex              PaymentMethod = "AMEX"
	PaymentMethodDiners            PaymentMethod = "DINERS"
	PaymentMethodBit               PaymentMethod = "BIT"
)

func (m PaymentMethod) Validate() error {
	allowed := []PaymentMethod{
		PaymentMethodIsraeliCard,
		PaymentMethodInternationalCard,
		PaymentMethodAmex,
		PaymentMethodDiners,
		PaymentMethodBit,
	}
	if lo.Contains(allowed, m) {
		return nil
	}
	return ierr.NewErrorf("invalid payment method: %s", m).
		WithHint("Payment method is not supported").
		WithReportableDetails(map[string]any{"payment_method": string(m)}).
		Mark(ierr.ErrValidation)
}

// DiscountType is how a coupon or domain discount expresses its value.
type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "percentage"
	DiscountTypeFixedAmount DiscountType = "fixed_amount"
)

// DiscountSource records which resolution path produced the general discount.
type DiscountSource string

const (
	DiscountSourceCoupon    DiscountSource = "coupon"
	DiscountSourceCorporate DiscountSource = "corporate_email"
	DiscountSourceVolume    DiscountSource = "volume_tier"
)

// RoundingStrategy is the psychological rounding pattern for the final stage.
type RoundingStrategy string

const (
	RoundingNearestWhole     RoundingStrategy = "nearest-whole"
	RoundingNinetyNine       RoundingStrategy = "ninety-nine"
	RoundingNinetyFive       RoundingStrategy = "ninety-five"
	RoundingNearestTenMinus1 RoundingStrategy = "nearest-ten-minus-one"
	RoundingNone             RoundingStrategy = "none"
)

func (r RoundingStrategy) Validate() error {
	allowed := []RoundingStrategy{
		RoundingNearestWhole,
		RoundingNinetyNine,
		RoundingNinetyFive,
		RoundingNearestTenMinus1,
		RoundingNone,
	}
	if lo.Contains(allowed, r) {
		return nil
	}
	return ierr.NewErrorf("invalid rounding strategy: %s", r).
		WithHint("Rounding strategy is not supported").
		Mark(ierr.ErrValidation)
}

// MarkupPolicy decides how multiple simultaneously matching markup events
// combine: summed, or only the largest applied.
type MarkupPolicy string

const (
	MarkupPolicySum MarkupPolicy = "sum"
	MarkupPolicyMax MarkupPolicy = "max"
)
