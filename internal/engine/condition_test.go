package engine

import (
	"context"
	"testing"

	"github.com/openroam/pricing/internal/domain/rule"
	"github.com/openroam/pricing/internal/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAlmanac(facts map[string]any) *Almanac {
	a := NewAlmanac(logger.GetLogger())
	for name, value := range facts {
		a.AddFact(name, value)
	}
	return a
}

func TestEvaluateCondition_Leaves(t *testing.T) {
	ctx := context.Background()
	almanac := newTestAlmanac(map[string]any{
		"group":         "Standard Unlimited Essential",
		"requestedDays": 7,
		"price":         decimal.NewFromFloat(12.5),
		"country":       "US",
		"isExactMatch":  false,
		"tags":          []string{"promo", "summer"},
		"nothing":       nil,
	})

	tests := []struct {
		name string
		cond *rule.Condition
		want bool
	}{
		{
			name: "equal string match",
			cond: &rule.Condition{Fact: "group", Operator: rule.OperatorEqual, Value: "Standard Unlimited Essential"},
			want: true,
		},
		{
			name: "equal string mismatch",
			cond: &rule.Condition{Fact: "group", Operator: rule.OperatorEqual, Value: "Other"},
			want: false,
		},
		{
			name: "equal numeric across representations",
			cond: &rule.Condition{Fact: "requestedDays", Operator: rule.OperatorEqual, Value: float64(7)},
			want: true,
		},
		{
			name: "equal decimal fact against float",
			cond: &rule.Condition{Fact: "price", Operator: rule.OperatorEqual, Value: 12.5},
			want: true,
		},
		{
			name: "equal bool",
			cond: &rule.Condition{Fact: "isExactMatch", Operator: rule.OperatorEqual, Value: false},
			want: true,
		},
		{
			name: "notEqual",
			cond: &rule.Condition{Fact: "country", Operator: rule.OperatorNotEqual, Value: "IL"},
			want: true,
		},
		{
			name: "greaterThan true",
			cond: &rule.Condition{Fact: "requestedDays", Operator: rule.OperatorGreaterThan, Value: 5},
			want: true,
		},
		{
			name: "greaterThan boundary is exclusive",
			cond: &rule.Condition{Fact: "requestedDays", Operator: rule.OperatorGreaterThan, Value: 7},
			want: false,
		},
		{
			name: "greaterThanInclusive boundary",
			cond: &rule.Condition{Fact: "requestedDays", Operator: rule.OperatorGreaterThanInclusive, Value: 7},
			want: true,
		},
		{
			name: "lessThan",
			cond: &rule.Condition{Fact: "requestedDays", Operator: rule.OperatorLessThan, Value: 10},
			want: true,
		},
		{
			name: "lessThanInclusive boundary",
			cond: &rule.Condition{Fact: "requestedDays", Operator: rule.OperatorLessThanInclusive, Value: 7},
			want: true,
		},
		{
			name: "in list",
			cond: &rule.Condition{Fact: "country", Operator: rule.OperatorIn, Value: []any{"US", "CA"}},
			want: true,
		},
		{
			name: "notIn list",
			cond: &rule.Condition{Fact: "country", Operator: rule.OperatorNotIn, Value: []any{"IL", "FR"}},
			want: true,
		},
		{
			name: "in numeric list compares numerically",
			cond: &rule.Condition{Fact: "requestedDays", Operator: rule.OperatorIn, Value: []any{float64(7), float64(10)}},
			want: true,
		},
		{
			name: "contains string list",
			cond: &rule.Condition{Fact: "tags", Operator: rule.OperatorContains, Value: "promo"},
			want: true,
		},
		{
			name: "contains substring",
			cond: &rule.Condition{Fact: "group", Operator: rule.OperatorContains, Value: "Unlimited"},
			want: true,
		},
		{
			name: "between inclusive bounds",
			cond: &rule.Condition{Fact: "requestedDays", Operator: rule.OperatorBetween, Value: []any{float64(7), float64(14)}},
			want: true,
		},
		{
			name: "between outside range",
			cond: &rule.Condition{Fact: "requestedDays", Operator: rule.OperatorBetween, Value: []any{float64(8), float64(14)}},
			want: false,
		},
		{
			name: "exists on registered fact",
			cond: &rule.Condition{Fact: "group", Operator: rule.OperatorExists},
			want: true,
		},
		{
			name: "exists on nil-valued fact",
			cond: &rule.Condition{Fact: "nothing", Operator: rule.OperatorExists},
			want: false,
		},
		{
			name: "notExists on unregistered fact",
			cond: &rule.Condition{Fact: "neverRegistered", Operator: rule.OperatorNotExists},
			want: true,
		},
		{
			name: "exists on unregistered fact",
			cond: &rule.Condition{Fact: "neverRegistered", Operator: rule.OperatorExists},
			want: false,
		},
		{
			name: "type mismatch fails the leaf",
			cond: &rule.Condition{Fact: "group", Operator: rule.OperatorGreaterThan, Value: 5},
			want: false,
		},
		{
			name: "string never numerically equal",
			cond: &rule.Condition{Fact: "requestedDays", Operator: rule.OperatorEqual, Value: "7"},
			want: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := EvaluateCondition(ctx, tc.cond, almanac)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEvaluateCondition_Combinators(t *testing.T) {
	ctx := context.Background()
	almanac := newTestAlmanac(map[string]any{
		"requestedDays": 7,
		"country":       "US",
	})

	yes := &rule.Condition{Fact: "country", Operator: rule.OperatorEqual, Value: "US"}
	no := &rule.Condition{Fact: "country", Operator: rule.OperatorEqual, Value: "IL"}

	tests := []struct {
		name string
		cond *rule.Condition
		want bool
	}{
		{"nil condition always fires", nil, true},
		{"all both true", &rule.Condition{All: []*rule.Condition{yes, yes}}, true},
		{"all one false", &rule.Condition{All: []*rule.Condition{yes, no}}, false},
		{"empty all vacuously true", &rule.Condition{All: []*rule.Condition{}}, true},
		{"any one true", &rule.Condition{Any: []*rule.Condition{no, yes}}, true},
		{"any none true", &rule.Condition{Any: []*rule.Condition{no, no}}, false},
		{"empty any false", &rule.Condition{Any: []*rule.Condition{}}, false},
		{"not inverts", &rule.Condition{Not: no}, true},
		{"nested tree", &rule.Condition{All: []*rule.Condition{
			yes,
			{Any: []*rule.Condition{no, {Not: no}}},
		}}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := EvaluateCondition(ctx, tc.cond, almanac)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEvaluateCondition_ShortCircuit(t *testing.T) {
	ctx := context.Background()
	almanac := newTestAlmanac(map[string]any{"country": "US"})

	calls := 0
	almanac.AddResolver("expensive", func(ctx context.Context, a *Almanac) (any, error) {
		calls++
		return true, nil
	})

	// The failing first branch must prevent evaluation of the second
	cond := &rule.Condition{All: []*rule.Condition{
		{Fact: "country", Operator: rule.OperatorEqual, Value: "IL"},
		{Fact: "expensive", Operator: rule.OperatorEqual, Value: true},
	}}
	got, err := EvaluateCondition(ctx, cond, almanac)
	require.NoError(t, err)
	assert.False(t, got)
	assert.Zero(t, calls)

	cond = &rule.Condition{Any: []*rule.Condition{
		{Fact: "country", Operator: rule.OperatorEqual, Value: "US"},
		{Fact: "expensive", Operator: rule.OperatorEqual, Value: true},
	}}
	got, err = EvaluateCondition(ctx, cond, almanac)
	require.NoError(t, err)
	assert.True(t, got)
	assert.Zero(t, calls)
}

func TestEvaluateCondition_PathAccess(t *testing.T) {
	ctx := context.Background()
	almanac := newTestAlmanac(map[string]any{
		"order": map[string]any{
			"total": decimal.NewFromInt(40),
			"customer": map[string]any{
				"segment": "corporate",
			},
		},
	})

	got, err := EvaluateCondition(ctx, &rule.Condition{
		Fact: "order", Path: "$.total", Operator: rule.OperatorGreaterThan, Value: 30,
	}, almanac)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = EvaluateCondition(ctx, &rule.Condition{
		Fact: "order", Path: "$.customer.segment", Operator: rule.OperatorEqual, Value: "corporate",
	}, almanac)
	require.NoError(t, err)
	assert.True(t, got)

	// A missing path segment fails the leaf rather than erroring
	got, err = EvaluateCondition(ctx, &rule.Condition{
		Fact: "order", Path: "$.customer.missing", Operator: rule.OperatorEqual, Value: "x",
	}, almanac)
	require.NoError(t, err)
	assert.False(t, got)

	// notExists is satisfied by a missing path
	got, err = EvaluateCondition(ctx, &rule.Condition{
		Fact: "order", Path: "$.customer.missing", Operator: rule.OperatorNotExists,
	}, almanac)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvaluateCondition_UnknownFactErrors(t *testing.T) {
	ctx := context.Background()
	almanac := newTestAlmanac(nil)

	// Any operator other than exists/notExists needs the fact registered
	_, err := EvaluateCondition(ctx, &rule.Condition{
		Fact: "ghost", Operator: rule.OperatorEqual, Value: 1,
	}, almanac)
	require.Error(t, err)
}
