package ir

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRValueSealed(t *testing.T) {
	var _ IRValue = IRString("test")
	var _ IRValue = IRInt(42)
	var _ IRValue = IRBool(true)
	var _ IRValue = IRNull{}
	var _ IRValue = IRFloat(1.5)
	var _ IRValue = IRArray{IRString("a"), IRInt(1)}
	var _ IRValue = IRObject{"key": IRString("value")}
}

func TestIRObjectSortedKeys(t *testing.T) {
	obj := IRObject{
		"a":  IRInt(1),
		"A":  IRInt(2),
		"aa": IRInt(3),
		"Aa": IRInt(4),
		"AA": IRInt(5),
	}

	assert.Equal(t, []string{"A", "AA", "Aa", "a", "aa"}, obj.SortedKeys())
	assert.Empty(t, IRObject{}.SortedKeys())
}

func TestIRObjectCloneIsDeep(t *testing.T) {
	orig := IRObject{
		"name": IRString("widget"),
		"tags": IRArray{IRString("a")},
		"dims": IRObject{"w": IRInt(2)},
	}

	clone := orig.Clone()
	clone["name"] = IRString("gadget")
	clone["tags"].(IRArray)[0] = IRString("z")
	clone["dims"].(IRObject)["w"] = IRInt(9)

	assert.Equal(t, IRString("widget"), orig["name"])
	assert.Equal(t, IRString("a"), orig["tags"].(IRArray)[0])
	assert.Equal(t, IRInt(2), orig["dims"].(IRObject)["w"])

	assert.Nil(t, IRObject(nil).Clone())
}

func TestIRObjectMerge(t *testing.T) {
	obj := IRObject{"a": IRInt(1), "b": IRInt(2)}
	src := IRObject{"b": IRInt(20), "c": IRObject{"d": IRInt(4)}}

	obj.Merge(src)

	assert.Equal(t, IRObject{"a": IRInt(1), "b": IRInt(20), "c": IRObject{"d": IRInt(4)}}, obj)

	// Merged values are copies, not shared with src.
	src["c"].(IRObject)["d"] = IRInt(40)
	assert.Equal(t, IRInt(4), obj["c"].(IRObject)["d"])
}

func TestFromAny(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  IRValue
	}{
		{"string", "x", IRString("x")},
		{"bool", true, IRBool(true)},
		{"int", 3, IRInt(3)},
		{"int64", int64(-4), IRInt(-4)},
		{"uint64", uint64(5), IRInt(5)},
		{"integral float", float64(6), IRInt(6)},
		{"fractional float", 1.5, IRFloat(1.5)},
		{"float32", float32(0.5), IRFloat(0.5)},
		{"json number", json.Number("9007199254740993"), IRInt(9007199254740993)},
		{"json float", json.Number("9.99"), IRFloat(9.99)},
		{"json integral exponent", json.Number("1e3"), IRInt(1000)},
		{"json beyond int64", json.Number("9223372036854775808"), IRFloat(9223372036854775808)},
		{"nil", nil, IRNull{}},
		{"nested null", map[string]any{"a": []any{nil}}, IRObject{"a": IRArray{IRNull{}}}},
		{"uint64 beyond int64", uint64(1 << 63), IRFloat(1 << 63)},
		{"integral ir float", IRFloat(4), IRInt(4)},
		{"list", []any{"a", 1}, IRArray{IRString("a"), IRInt(1)}},
		{"map", map[string]any{"k": map[string]any{"n": 1}}, IRObject{"k": IRObject{"n": IRInt(1)}}},
		{"ir passthrough", IRString("y"), IRString("y")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAny(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromAnyRejects(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{"NaN", math.NaN()},
		{"infinity", math.Inf(1)},
		{"nested infinity", map[string]any{"a": []any{math.Inf(-1)}}},
		{"json overflow", json.Number("1e400")},
		{"unsupported", struct{}{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromAny(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestFromAnyInt64Boundary(t *testing.T) {
	// float64(math.MaxInt64) rounds up to 1<<63, which int64 cannot hold.
	got, err := FromAny(float64(1 << 63))
	require.NoError(t, err)
	assert.Equal(t, IRFloat(1<<63), got)

	got, err = FromAny(float64(math.MinInt64))
	require.NoError(t, err)
	assert.Equal(t, IRInt(math.MinInt64), got)

	got, err = FromAny(float64(1<<62))
	require.NoError(t, err)
	assert.Equal(t, IRInt(1<<62), got)
}

func TestIRObjectNormalize(t *testing.T) {
	obj := IRObject{
		"note":  nil,
		"count": IRFloat(3),
		"ratio": IRFloat(0.5),
		"list":  IRArray{nil, IRObject{"n": nil}},
	}

	got, err := obj.Normalize()
	require.NoError(t, err)
	assert.Equal(t, IRObject{
		"note":  IRNull{},
		"count": IRInt(3),
		"ratio": IRFloat(0.5),
		"list":  IRArray{IRNull{}, IRObject{"n": IRNull{}}},
	}, got)

	// The input is not modified.
	assert.Nil(t, obj["note"])

	_, err = IRObject{"bad": IRArray{IRFloat(math.NaN())}}.Normalize()
	assert.Error(t, err)

	got, err = IRObject(nil).Normalize()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIRObjectJSON(t *testing.T) {
	obj := IRObject{"b": IRInt(9007199254740993), "a": IRArray{IRBool(true)}}

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":[true],"b":9007199254740993}`, string(data))

	var back IRObject
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, obj, back)
}

func TestIRObjectUnmarshalFloatAndNull(t *testing.T) {
	var obj IRObject
	require.NoError(t, json.Unmarshal([]byte(`{"pi":3.14,"n":2.0,"note":null}`), &obj))
	assert.Equal(t, IRObject{"pi": IRFloat(3.14), "n": IRInt(2), "note": IRNull{}}, obj)

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"n":2,"note":null,"pi":3.14}`, string(data))
}
