package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode/utf16"
)

// IRValue is a sealed interface over the value types an item field may hold.
// Only IRNull, IRString, IRInt, IRFloat, IRBool, IRArray and IRObject
// implement it.
type IRValue interface {
	irValue()
}

// IRNull is an explicit null field value.
type IRNull struct{}

func (IRNull) irValue() {}

// MarshalJSON implements json.Marshaler for IRNull.
func (IRNull) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// IRString is a string field value.
type IRString string

func (IRString) irValue() {}

// IRInt is an integer field value. Always int64.
type IRInt int64

func (IRInt) irValue() {}

// IRFloat is a number that is fractional or outside the int64 range.
// Integral numbers that fit int64 are always IRInt, so a number has exactly
// one representation and one canonical encoding. NaN and infinities are not
// valid values.
type IRFloat float64

func (IRFloat) irValue() {}

// MarshalJSON writes f in canonical number form.
func (f IRFloat) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(f)
}

// IRBool is a boolean field value.
type IRBool bool

func (IRBool) irValue() {}

// IRArray is an ordered list of values.
type IRArray []IRValue

func (IRArray) irValue() {}

// IRObject maps field names to values. It is the payload of an Item.
// Use SortedKeys for deterministic iteration.
type IRObject map[string]IRValue

func (IRObject) irValue() {}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units, not UTF-8 bytes).
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}

// Clone returns a deep copy of obj. A nil object clones to nil.
func (obj IRObject) Clone() IRObject {
	if obj == nil {
		return nil
	}
	out := make(IRObject, len(obj))
	for k, v := range obj {
		out[k] = cloneValue(v)
	}
	return out
}

// Merge copies every field of src onto obj, overwriting existing keys.
// Fields of obj absent from src are left untouched.
func (obj IRObject) Merge(src IRObject) {
	for k, v := range src {
		obj[k] = cloneValue(v)
	}
}

func cloneValue(v IRValue) IRValue {
	switch val := v.(type) {
	case IRObject:
		return val.Clone()
	case IRArray:
		out := make(IRArray, len(val))
		for i, elem := range val {
			out[i] = cloneValue(elem)
		}
		return out
	default:
		// Scalars are immutable.
		return v
	}
}

// Normalize returns a deep copy of obj in canonical value form: a nil
// value becomes IRNull and an integral IRFloat within int64 range becomes
// IRInt. NaN and infinite floats are rejected.
func (obj IRObject) Normalize() (IRObject, error) {
	if obj == nil {
		return nil, nil
	}
	out := make(IRObject, len(obj))
	for k, v := range obj {
		nv, err := normalizeValue(v)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", k, err)
		}
		out[k] = nv
	}
	return out, nil
}

func normalizeValue(v IRValue) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case IRFloat:
		return numberValue(float64(val))
	case IRArray:
		out := make(IRArray, len(val))
		for i, elem := range val {
			nv, err := normalizeValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = nv
		}
		return out, nil
	case IRObject:
		return val.Normalize()
	default:
		return v, nil
	}
}

// numberValue picks the representation of a decoded number. 1<<63 itself
// is outside int64: float64(math.MaxInt64) rounds up to it.
func numberValue(f float64) (IRValue, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("number %v is not finite", f)
	}
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return IRInt(int64(f)), nil
	}
	return IRFloat(f), nil
}

// FromAny converts a decoded YAML/JSON value into an IRValue.
//
// Accepted: nil (as IRNull), string, bool, the Go integer and float kinds,
// json.Number, []any and map[string]any. Numbers go through numberValue, so
// 2.0 decodes as IRInt(2) and 2.5 as IRFloat(2.5).
func FromAny(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case IRValue:
		return normalizeValue(val)
	case string:
		return IRString(val), nil
	case bool:
		return IRBool(val), nil
	case int:
		return IRInt(val), nil
	case int32:
		return IRInt(val), nil
	case int64:
		return IRInt(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return IRFloat(float64(val)), nil
		}
		return IRInt(val), nil
	case float32:
		return numberValue(float64(val))
	case float64:
		return numberValue(val)
	case json.Number:
		if !strings.ContainsAny(string(val), ".eE") {
			if n, err := val.Int64(); err == nil {
				return IRInt(n), nil
			}
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("number out of range: %s", val)
		}
		return numberValue(f)
	case []any:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			irElem, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	case map[string]any:
		obj := make(IRObject, len(val))
		for k, elem := range val {
			irElem, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("%q: %w", k, err)
			}
			obj[k] = irElem
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// MarshalJSON writes obj as canonical JSON.
func (obj IRObject) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(obj)
}

// MarshalJSON writes arr as canonical JSON.
func (arr IRArray) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(arr)
}

// UnmarshalJSON decodes a JSON object, keeping integers exact via json.Number.
func (obj *IRObject) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		*obj = nil
		return nil
	}

	v, err := FromAny(raw)
	if err != nil {
		return err
	}
	*obj = v.(IRObject)
	return nil
}
