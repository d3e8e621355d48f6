package testutil

import (
	"github.com/openroam/pricing/internal/domain/bundle"
	"github.com/openroam/pricing/internal/domain/rule"
	"github.com/openroam/pricing/internal/types"
	"github.com/shopspring/decimal"
)

// NewTestBundle builds a published catalog bundle for tests.
func NewTestBundle(id, group, country string, validityDays int, price float64) *bundle.Bundle {
	return &bundle.Bundle{
		ID:           id,
		GroupName:    group,
		Countries:    []string{country},
		ValidityDays: validityDays,
		Price:        decimal.NewFromFloat(price),
		IsUnlimited:  true,
		Currency:     "USD",
		BaseModel:    types.GetDefaultBaseModel(),
	}
}

// DefaultRuleBlocks returns the canonical block set covering every pipeline
// stage, in the shape the production rule store persists.
func DefaultRuleBlocks(markupMatrix map[string]any) []*rule.Block {
	return []*rule.Block{
		{
			ID:              "blk_base_price",
			Name:            "base-price",
			EventType:       types.EventSetBasePrice,
			DefaultPriority: 100,
			IsActive:        true,
			BaseModel:       types.GetDefaultBaseModel(),
		},
		{
			ID:              "blk_markup",
			Name:            "group-markup",
			EventType:       types.EventApplyMarkup,
			Params:          map[string]any{"matrix": markupMatrix},
			DefaultPriority: 90,
			IsActive:        true,
			BaseModel:       types.GetDefaultBaseModel(),
		},
		{
			ID:        "blk_unused_days",
			Name:      "unused-days-discount",
			EventType: types.EventApplyUnusedDaysDiscount,
			Conditions: &rule.Condition{
				All: []*rule.Condition{
					{Fact: "isExactMatch", Operator: rule.OperatorEqual, Value: false},
					{Fact: "unusedDays", Operator: rule.OperatorGreaterThan, Value: 0},
				},
			},
			DefaultPriority: 80,
			IsActive:        true,
			BaseModel:       types.GetDefaultBaseModel(),
		},
		{
			ID:        "blk_general_discount",
			Name:      "general-discount",
			EventType: types.EventApplyDiscount,
			Conditions: &rule.Condition{
				All: []*rule.Condition{
					{Fact: "resolvedDiscount", Path: "$.eligible", Operator: rule.OperatorEqual, Value: true},
				},
			},
			DefaultPriority: 70,
			IsActive:        true,
			BaseModel:       types.GetDefaultBaseModel(),
		},
		{
			ID:              "blk_profit_floor",
			Name:            "profit-floor",
			EventType:       types.EventApplyProfitConstraint,
			Params:          map[string]any{"minimum_profit": 1.5},
			DefaultPriority: 60,
			IsActive:        true,
			BaseModel:       types.GetDefaultBaseModel(),
		},
		{
			ID:              "blk_processing_fee",
			Name:            "processing-fee",
			EventType:       types.EventApplyProcessingFee,
			DefaultPriority: 50,
			IsActive:        true,
			BaseModel:       types.GetDefaultBaseModel(),
		},
		{
			ID:              "blk_rounding",
			Name:            "psychological-rounding",
			EventType:       types.EventApplyPsychologicalRounding,
			Params:          map[string]any{"strategy": string(types.RoundingNearestWhole)},
			DefaultPriority: 40,
			IsActive:        true,
			BaseModel:       types.GetDefaultBaseModel(),
		},
	}
}
