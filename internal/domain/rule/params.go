package rule

import (
	ierr "github.com/openroam/pricing/internal/errors"
	"github.com/openroam/pricing/internal/types"
)

// ValidateEventParams checks a block's params against the schema of its event
// type. Callers decide what to do on failure: the loader's default policy is
// to log and use the raw params anyway so one malformed block cannot abort
// pricing.
func ValidateEventParams(eventType types.PricingEventType, params map[string]any) error {
	switch eventType {
	case types.EventSetBasePrice:
		return validateSetBasePriceParams(params)
	case types.EventApplyMarkup:
		return validateMarkupParams(params)
	case types.EventApplyUnusedDaysDiscount:
		return validateUnusedDaysParams(params)
	case types.EventApplyDiscount:
		return validateDiscountParams(params)
	case types.EventApplyProfitConstraint:
		return validateProfitConstraintParams(params)
	case types.EventApplyProcessingFee:
		return validateProcessingFeeParams(params)
	case types.EventApplyPsychologicalRounding:
		return validateRoundingParams(params)
	default:
		return eventType.Validate()
	}
}

func validateSetBasePriceParams(params map[string]any) error {
	if v, ok := params["source"]; ok {
		s, isString := v.(string)
		if !isString || (s != "selected" && s != "previous") {
			return invalidParam("set-base-price", "source", "must be selected or previous")
		}
	}
	return nil
}

func validateMarkupParams(params map[string]any) error {
	_, hasValue := params["value"]
	matrix, hasMatrix := params["matrix"]
	if !hasValue && !hasMatrix {
		return invalidParam("apply-markup", "value", "either value or matrix is required")
	}
	if hasValue && !isNumeric(params["value"]) {
		return invalidParam("apply-markup", "value", "must be numeric")
	}
	if hasMatrix {
		m, ok := matrix.(map[string]any)
		if !ok {
			return invalidParam("apply-markup", "matrix", "must be a group to duration-value map")
		}
		for group, durations := range m {
			d, ok := durations.(map[string]any)
			if !ok {
				return invalidParam("apply-markup", "matrix."+group, "must map durations to numeric values")
			}
			for duration, v := range d {
				if !isNumeric(v) {
					return invalidParam("apply-markup", "matrix."+group+"."+duration, "must be numeric")
				}
			}
		}
	}
	return nil
}

func validateUnusedDaysParams(params map[string]any) error {
	if v, ok := params["retention_factor"]; ok {
		f, numeric := toFloat(v)
		if !numeric || f < 0 || f > 1 {
			return invalidParam("apply-unused-days-discount", "retention_factor", "must be numeric within [0, 1]")
		}
	}
	return nil
}

func validateDiscountParams(params map[string]any) error {
	if v, ok := params["source"]; ok {
		if _, isString := v.(string); !isString {
			return invalidParam("apply-discount", "source", "must be a fact path string")
		}
	}
	return nil
}

func validateProfitConstraintParams(params map[string]any) error {
	if v, ok := params["minimum_profit"]; ok {
		f, numeric := toFloat(v)
		if !numeric || f < 0 {
			return invalidParam("apply-profit-constraint", "minimum_profit", "must be a non-negative number")
		}
	}
	return nil
}

func validateProcessingFeeParams(params map[string]any) error {
	if rates, ok := params["rates"]; ok {
		m, isMap := rates.(map[string]any)
		if !isMap {
			return invalidParam("apply-processing-fee", "rates", "must map payment methods to numeric rates")
		}
		for method, v := range m {
			if !isNumeric(v) {
				return invalidParam("apply-processing-fee", "rates."+method, "must be numeric")
			}
		}
	}
	if v, ok := params["default_rate"]; ok && !isNumeric(v) {
		return invalidParam("apply-processing-fee", "default_rate", "must be numeric")
	}
	if v, ok := params["value"]; ok && !isNumeric(v) {
		return invalidParam("apply-processing-fee", "value", "must be numeric")
	}
	return nil
}

func validateRoundingParams(params map[string]any) error {
	if v, ok := params["strategy"]; ok {
		s, isString := v.(string)
		if !isString {
			return invalidParam("apply-psychological-rounding", "strategy", "must be a string")
		}
		if err := types.RoundingStrategy(s).Validate(); err != nil {
			return invalidParam("apply-psychological-rounding", "strategy", "is not a supported rounding strategy")
		}
	}
	return nil
}

func invalidParam(eventType, param, reason string) error {
	return ierr.NewErrorf("invalid %s params: %s %s", eventType, param, reason).
		WithHint("Rule block params do not match the event type schema").
		WithReportableDetails(map[string]any{
			"event_type": eventType,
			"param":      param,
		}).
		Mark(ierr.ErrValidation)
}

func isNumeric(v any) bool {
	_, ok := toFloat(v)
	return ok
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
