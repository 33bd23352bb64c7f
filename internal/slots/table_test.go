package slots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/obstore/internal/ir"
)

func item(index int, value int64) *ir.Item {
	return &ir.Item{Index: index, Fields: ir.IRObject{"value": ir.IRInt(value)}}
}

func TestTable_AppendAndGet(t *testing.T) {
	tb := NewTable(0)

	require.NoError(t, tb.Set(0, item(0, 1)))
	require.NoError(t, tb.Set(1, item(1, 2)))
	assert.Equal(t, 2, tb.Len())

	got, err := tb.Get(1)
	require.NoError(t, err)
	assert.Equal(t, ir.IRInt(2), got.Fields["value"])
}

func TestTable_RejectsGap(t *testing.T) {
	tb := NewTable(0)

	err := tb.Set(1, item(1, 1))
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.Equal(t, 0, tb.Len())
}

func TestTable_GetOutOfRange(t *testing.T) {
	tb := NewTable(8)

	_, err := tb.Get(0)
	require.ErrorIs(t, err, ErrIndexOutOfRange, "capacity hint does not extend bounds")
	assert.Contains(t, err.Error(), "index 0 with 0 cells")

	_, err = tb.Get(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestTable_TombstoneAndLive(t *testing.T) {
	tb := NewTable(4)
	for i := 0; i < 4; i++ {
		require.NoError(t, tb.Set(i, item(i, int64(i))))
	}

	require.NoError(t, tb.Set(0, nil))
	require.NoError(t, tb.Set(2, nil))

	got, err := tb.Get(2)
	require.NoError(t, err)
	assert.Nil(t, got)

	live := tb.Live()
	require.Len(t, live, 2)
	assert.Equal(t, 1, live[0].Index)
	assert.Equal(t, 3, live[1].Index)
	assert.Equal(t, 4, tb.Len(), "tombstones keep the table length")
}

func TestTable_NegativeCapacity(t *testing.T) {
	tb := NewTable(-3)
	assert.Equal(t, 0, tb.Len())
}
