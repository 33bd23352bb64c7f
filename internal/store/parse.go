package store

import (
	"encoding/json"
	"math"

	"github.com/roach88/obstore/internal/ir"
)

// ParseFields validates loosely typed input (decoded YAML or JSON) as a
// fields argument.
//
// nil yields a nil IRObject: UpdateItem treats that as delete and
// CreateItem rejects it. A null inside the mapping is a field value and
// becomes ir.IRNull. Anything other than a mapping, or a mapping holding a
// non-finite number or an unsupported type, is INVALID_ARGUMENT.
func ParseFields(op string, v any) (ir.IRObject, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case ir.IRObject:
		return val, nil
	case map[string]any:
		obj, err := ir.FromAny(val)
		if err != nil {
			return nil, &Error{
				Code:    ErrCodeInvalidArgument,
				Op:      op,
				Index:   -1,
				Message: "fields hold an unsupported value",
				Err:     err,
			}
		}
		return obj.(ir.IRObject), nil
	default:
		return nil, invalidArgument(op, -1, "expects fields of type object, got %s", typeName(v))
	}
}

// ParseIndex validates loosely typed input as an index argument. Integers
// are accepted, as are integral float64 and json.Number values since JSON
// decoders produce those. Range is checked by the operation itself.
func ParseIndex(op string, v any) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case int32:
		return int(val), nil
	case int64:
		return int(val), nil
	case uint64:
		if val <= math.MaxInt {
			return int(val), nil
		}
	case float64:
		if val == math.Trunc(val) && math.Abs(val) <= 1<<53 {
			return int(val), nil
		}
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return int(n), nil
		}
	}
	return 0, invalidArgument(op, -1, "expects index of type integer, got %s", typeName(v))
}

// typeName names a decoded value the way a caller wrote it.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case int, int32, int64, uint64:
		return "integer"
	case float32, float64, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any, ir.IRObject:
		return "object"
	default:
		return "unsupported"
	}
}
