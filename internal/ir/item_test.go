package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemClone(t *testing.T) {
	it := &Item{Index: 2, Fields: IRObject{"value": IRInt(1)}}
	c := it.Clone()
	c.Fields["value"] = IRInt(5)

	assert.Equal(t, IRInt(1), it.Fields["value"])
	assert.Equal(t, 2, c.Index)

	var none *Item
	assert.Nil(t, none.Clone())
}

func TestChangeKind(t *testing.T) {
	it := &Item{Index: 4}

	tests := []struct {
		name  string
		c     Change
		kind  ChangeKind
		index int
	}{
		{"create", Change{Current: it}, ChangeCreate, 4},
		{"update", Change{Previous: it, Current: it}, ChangeUpdate, 4},
		{"delete", Change{Previous: it}, ChangeDelete, 4},
		{"noop", Change{}, ChangeNoop, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.c.Kind())
			assert.Equal(t, tt.index, tt.c.Index())
		})
	}
}

func TestChangeJSONShape(t *testing.T) {
	c := Change{Current: &Item{Index: 1, Fields: IRObject{"value": IRInt(2)}}}

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"previous":null,"current":{"index":1,"fields":{"value":2}}}`, string(data))

	var back Change
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Nil(t, back.Previous)
	assert.Equal(t, c.Current, back.Current)
}
