package store

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/obstore/internal/ir"
)

func TestParseFields(t *testing.T) {
	obj, err := ParseFields(OpCreate, map[string]any{"a": 1, "b": []any{"x", true}})
	require.NoError(t, err)
	assert.Equal(t, ir.IRObject{
		"a": ir.IRInt(1),
		"b": ir.IRArray{ir.IRString("x"), ir.IRBool(true)},
	}, obj)
}

func TestParseFields_FloatAndNullValues(t *testing.T) {
	obj, err := ParseFields(OpCreate, map[string]any{"price": 9.99, "qty": 2.0})
	require.NoError(t, err)
	assert.Equal(t, ir.IRObject{"price": ir.IRFloat(9.99), "qty": ir.IRInt(2)}, obj)

	obj, err = ParseFields(OpUpdate, map[string]any{"note": nil})
	require.NoError(t, err)
	assert.Equal(t, ir.IRObject{"note": ir.IRNull{}}, obj)
}

func TestParseFields_Nil(t *testing.T) {
	obj, err := ParseFields(OpUpdate, nil)
	require.NoError(t, err)
	assert.Nil(t, obj)
}

func TestParseFields_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "hello", "got string"},
		{"int", 3, "got integer"},
		{"bool", true, "got boolean"},
		{"array", []any{1}, "got array"},
		{"infinite field", map[string]any{"a": math.Inf(1)}, "unsupported value"},
		{"unsupported field", map[string]any{"a": struct{}{}}, "unsupported value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFields(OpCreate, tt.in)
			require.Error(t, err)
			assert.True(t, IsInvalidArgument(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseIndex(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
	}{
		{"int", 3, 3},
		{"int64", int64(4), 4},
		{"integral float", float64(5), 5},
		{"json number", json.Number("6"), 6},
		{"negative", -1, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIndex(OpItem, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIndex_Rejects(t *testing.T) {
	for _, in := range []any{"1", 1.5, nil, true, map[string]any{}, json.Number("1.0")} {
		_, err := ParseIndex(OpDelete, in)
		require.Error(t, err, "%v", in)
		assert.True(t, IsInvalidArgument(err), "%v", in)
	}
}

func TestParseIndex_NegativeIsOutOfRange(t *testing.T) {
	s := New()
	mustCreate(t, s, ir.IRObject{})

	idx, err := ParseIndex(OpItem, -1)
	require.NoError(t, err)
	_, err = s.Item(idx)
	assert.True(t, IsIndexOutOfRange(err))
}
