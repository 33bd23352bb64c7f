package slots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocator_Sequential(t *testing.T) {
	a := NewAllocator()

	for want := 0; want < 5; want++ {
		assert.Equal(t, want, a.Allocate())
	}
	assert.Equal(t, 5, a.Len())
	assert.Equal(t, 0, a.FreeCount())
}

func TestAllocator_ReusesMostRecentlyFreed(t *testing.T) {
	a := NewAllocator()
	for i := 0; i < 4; i++ {
		a.Allocate()
	}

	require.NoError(t, a.Free(1))
	require.NoError(t, a.Free(3))
	require.NoError(t, a.Free(0))

	assert.Equal(t, []int{0, 3, 1}, a.FreeList())
	assert.Equal(t, 0, a.Allocate())
	assert.Equal(t, 3, a.Allocate())
	assert.Equal(t, 1, a.Allocate())

	// Free set drained: a fresh index past the high-water mark.
	assert.Equal(t, 4, a.Allocate())
}

func TestAllocator_DoubleFree(t *testing.T) {
	a := NewAllocator()
	a.Allocate()

	require.NoError(t, a.Free(0))
	err := a.Free(0)
	require.ErrorIs(t, err, ErrDoubleFree)
	assert.Equal(t, 1, a.FreeCount(), "free set must not hold duplicates")
}

func TestAllocator_FreeNeverAllocated(t *testing.T) {
	a := NewAllocator()
	a.Allocate()

	assert.ErrorIs(t, a.Free(1), ErrNotAllocated)
	assert.ErrorIs(t, a.Free(-1), ErrNotAllocated)
}

func TestAllocator_Reclaim(t *testing.T) {
	a := NewAllocator()
	for i := 0; i < 4; i++ {
		a.Allocate()
	}
	require.NoError(t, a.Free(0))
	require.NoError(t, a.Free(2))
	require.NoError(t, a.Free(3))

	require.NoError(t, a.Reclaim(2))
	assert.False(t, a.IsFree(2))
	assert.Equal(t, []int{3, 0}, a.FreeList(), "order of remaining indices is kept")

	assert.ErrorIs(t, a.Reclaim(2), ErrNotFree)
	assert.ErrorIs(t, a.Reclaim(1), ErrNotFree)
}

func TestAllocator_IsFree(t *testing.T) {
	a := NewAllocator()
	a.Allocate()
	a.Allocate()

	assert.False(t, a.IsFree(0))
	require.NoError(t, a.Free(0))
	assert.True(t, a.IsFree(0))
	assert.False(t, a.IsFree(1))

	a.Allocate()
	assert.False(t, a.IsFree(0))
}
