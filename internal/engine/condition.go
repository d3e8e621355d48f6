package engine

import (
	"context"
	"strings"

	"github.com/openroam/pricing/internal/domain/rule"
	ierr "github.com/openroam/pricing/internal/errors"
)

// EvaluateCondition evaluates a condition tree against the almanac. The
// evaluation is total over fact values: operator type mismatches fail the
// leaf instead of erroring. Only unknown facts and failing resolvers
// propagate errors.
func EvaluateCondition(ctx context.Context, cond *rule.Condition, almanac *Almanac) (bool, error) {
	// A rule with no gating condition always fires
	if cond == nil {
		return true, nil
	}

	switch {
	case cond.All != nil:
		for _, child := range cond.All {
			ok, err := EvaluateCondition(ctx, child, almanac)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		// Empty all is vacuously true
		return true, nil

	case cond.Any != nil:
		for _, child := range cond.Any {
			ok, err := EvaluateCondition(ctx, child, almanac)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil

	case cond.Not != nil:
		ok, err := EvaluateCondition(ctx, cond.Not, almanac)
		if err != nil {
			return false, err
		}
		return !ok, nil

	default:
		return evaluateLeaf(ctx, cond, almanac)
	}
}

func evaluateLeaf(ctx context.Context, cond *rule.Condition, almanac *Almanac) (bool, error) {
	factValue, err := almanac.FactValue(ctx, cond.Fact)
	if err != nil {
		// exists/notExists may legitimately probe unregistered facts
		if ierr.IsNotFound(err) && (cond.Operator == rule.OperatorExists || cond.Operator == rule.OperatorNotExists) {
			return cond.Operator == rule.OperatorNotExists, nil
		}
		return false, err
	}

	if cond.Path != "" {
		resolved, ok := resolvePath(factValue, cond.Path)
		if !ok {
			return cond.Operator == rule.OperatorNotExists, nil
		}
		factValue = resolved
	}

	return applyOperator(cond.Operator, factValue, cond.Value), nil
}

func applyOperator(op rule.Operator, factValue, condValue any) bool {
	switch op {
	case rule.OperatorEqual:
		return valuesEqual(factValue, condValue)
	case rule.OperatorNotEqual:
		return !valuesEqual(factValue, condValue)
	case rule.OperatorGreaterThan:
		return compareNumeric(factValue, condValue, func(c int) bool { return c > 0 })
	case rule.OperatorLessThan:
		return compareNumeric(factValue, condValue, func(c int) bool { return c < 0 })
	case rule.OperatorGreaterThanInclusive:
		return compareNumeric(factValue, condValue, func(c int) bool { return c >= 0 })
	case rule.OperatorLessThanInclusive:
		return compareNumeric(factValue, condValue, func(c int) bool { return c <= 0 })
	case rule.OperatorIn:
		return valueIn(factValue, condValue)
	case rule.OperatorNotIn:
		return !valueIn(factValue, condValue)
	case rule.OperatorContains:
		return valueContains(factValue, condValue)
	case rule.OperatorExists:
		return factValue != nil
	case rule.OperatorNotExists:
		return factValue == nil
	case rule.OperatorBetween:
		return valueBetween(factValue, condValue)
	default:
		return false
	}
}

// valuesEqual compares numerically when both sides are numeric, otherwise by
// strict type-aware equality on strings and booleans.
func valuesEqual(a, b any) bool {
	if da, ok := toDecimal(a); ok {
		if db, ok := toDecimal(b); ok {
			return da.Equal(db)
		}
		return false
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	default:
		return false
	}
}

func compareNumeric(a, b any, test func(int) bool) bool {
	da, ok := toDecimal(a)
	if !ok {
		return false
	}
	db, ok := toDecimal(b)
	if !ok {
		return false
	}
	return test(da.Cmp(db))
}

// valueIn reports whether the fact value is a member of the condition's list.
func valueIn(factValue, condValue any) bool {
	list, ok := condValue.([]any)
	if !ok {
		return false
	}
	for _, item := range list {
		if valuesEqual(factValue, item) {
			return true
		}
	}
	return false
}

// valueContains reports whether the fact's list contains the condition value,
// or the fact's string contains the condition substring.
func valueContains(factValue, condValue any) bool {
	switch fv := factValue.(type) {
	case string:
		sub, ok := condValue.(string)
		return ok && strings.Contains(fv, sub)
	case []string:
		for _, item := range fv {
			if valuesEqual(item, condValue) {
				return true
			}
		}
		return false
	case []any:
		for _, item := range fv {
			if valuesEqual(item, condValue) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// valueBetween checks the fact value against a two-element [low, high] range,
// bounds inclusive.
func valueBetween(factValue, condValue any) bool {
	bounds, ok := condValue.([]any)
	if !ok || len(bounds) != 2 {
		return false
	}
	fv, ok := toDecimal(factValue)
	if !ok {
		return false
	}
	low, ok := toDecimal(bounds[0])
	if !ok {
		return false
	}
	high, ok := toDecimal(bounds[1])
	if !ok {
		return false
	}
	return fv.Cmp(low) >= 0 && fv.Cmp(high) <= 0
}
