package engine

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// resolvePath drills into a value with a JSON-pointer-like accessor such as
// "$.price" or "$.coupon.max_discount". Maps are accessed by key, slices by
// numeric index, structs by json tag (falling back to the field name). The
// second return is false when any segment is missing.
func resolvePath(value any, path string) (any, bool) {
	path = strings.TrimPrefix(path, "$")
	path = strings.TrimPrefix(path, ".")
	if path == "" {
		return value, true
	}

	current := value
	for _, segment := range strings.Split(path, ".") {
		next, ok := resolveSegment(current, segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func resolveSegment(value any, segment string) (any, bool) {
	if value == nil {
		return nil, false
	}

	switch v := value.(type) {
	case map[string]any:
		out, ok := v[segment]
		return out, ok
	case map[string]string:
		out, ok := v[segment]
		return out, ok
	}

	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		idx, err := strconv.Atoi(segment)
		if err != nil || idx < 0 || idx >= rv.Len() {
			return nil, false
		}
		return rv.Index(idx).Interface(), true
	case reflect.Map:
		mv := rv.MapIndex(reflect.ValueOf(segment))
		if !mv.IsValid() {
			return nil, false
		}
		return mv.Interface(), true
	case reflect.Struct:
		return structField(rv, segment)
	default:
		return nil, false
	}
}

// structField matches a segment against json tags first so stored rule
// definitions and Go structs agree on naming.
func structField(rv reflect.Value, segment string) (any, bool) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := strings.Split(field.Tag.Get("json"), ",")[0]
		if tag == segment || (tag == "" && strings.EqualFold(field.Name, segment)) {
			fv := rv.Field(i)
			if fv.Kind() == reflect.Pointer && fv.IsNil() {
				return nil, true
			}
			return fv.Interface(), true
		}
		if field.Anonymous {
			if out, ok := structField(rv.Field(i), segment); ok {
				return out, ok
			}
		}
	}
	return nil, false
}

// toDecimal coerces numeric types to decimal. Strings and other types are
// not coerced: the condition evaluator treats such mismatches as a failed
// leaf rather than an error.
func toDecimal(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, true
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, false
		}
		return *v, true
	case float64:
		return decimal.NewFromFloat(v), true
	case float32:
		return decimal.NewFromFloat32(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int32:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case uint:
		return decimal.NewFromInt(int64(v)), true
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		return d, err == nil
	default:
		return decimal.Zero, false
	}
}
