package engine

import (
	"github.com/openroam/pricing/internal/types"
	"github.com/shopspring/decimal"
)

// Breakdown is the caller-facing decomposition of a final price. All values
// are rounded to 2 decimal places here, at the boundary, never during the
// pipeline's intermediate computation.
type Breakdown struct {
	Cost           decimal.Decimal `json:"cost"`
	Markup         decimal.Decimal `json:"markup"`
	DiscountValue  decimal.Decimal `json:"discount_value"`
	ProcessingCost decimal.Decimal `json:"processing_cost"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	DiscountRate   decimal.Decimal `json:"discount_rate"`
	NetProfit      decimal.Decimal `json:"net_profit"`
	DiscountPerDay decimal.Decimal `json:"discount_per_day"`
	FinalPrice     decimal.Decimal `json:"final_price"`
	Currency       string          `json:"currency"`
}

const boundaryScale = 2

// AssembleBreakdown derives the breakdown fields from a pipeline trace.
func AssembleBreakdown(trace *Trace, unusedDays int, currency string) *Breakdown {
	cost := trace.BaseCost
	markup := trace.StageImpact(types.EventApplyMarkup)
	unusedImpact := trace.StageImpact(types.EventApplyUnusedDaysDiscount)
	generalImpact := trace.StageImpact(types.EventApplyDiscount)
	processingCost := trace.StageImpact(types.EventApplyProcessingFee)

	// Discount impacts are negative deltas; report the positive magnitude
	discountValue := unusedImpact.Add(generalImpact).Neg()

	discountRate := decimal.Zero
	if denominator := cost.Add(markup); !denominator.IsZero() {
		discountRate = discountValue.Div(denominator).Mul(decimal.NewFromInt(100))
	}

	discountPerDay := decimal.Zero
	if unusedDays > 0 {
		discountPerDay = unusedImpact.Neg().Div(decimal.NewFromInt(int64(unusedDays)))
	}

	totalCost := cost.Add(processingCost)

	return &Breakdown{
		Cost:           cost.Round(boundaryScale),
		Markup:         markup.Round(boundaryScale),
		DiscountValue:  discountValue.Round(boundaryScale),
		ProcessingCost: processingCost.Round(boundaryScale),
		TotalCost:      totalCost.Round(boundaryScale),
		DiscountRate:   discountRate.Round(boundaryScale),
		NetProfit:      trace.FinalPrice.Sub(totalCost).Round(boundaryScale),
		DiscountPerDay: discountPerDay.Round(boundaryScale),
		FinalPrice:     trace.FinalPrice.Round(boundaryScale),
		Currency:       currency,
	}
}
