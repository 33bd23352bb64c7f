package slots

import (
	"errors"
	"fmt"
)

var (
	// ErrDoubleFree is returned when freeing an index that is already free.
	ErrDoubleFree = errors.New("index already free")

	// ErrNotAllocated is returned for an index at or past the high-water mark.
	ErrNotAllocated = errors.New("index never allocated")

	// ErrNotFree is returned when reclaiming an index that is not in the free set.
	ErrNotFree = errors.New("index not free")
)

// Allocator assigns integer indices and recycles freed ones.
//
// Freed indices are kept on a stack and reused last-in-first-out: the most
// recently freed index is handed out first. A new index past the high-water
// mark is only produced when the free set is empty, so storage grows only
// when every lower index is live.
//
// INVARIANTS:
//   - every free index is < Len()
//   - an index appears at most once in the free set
type Allocator struct {
	next  int              // high-water mark
	stack []int            // free indices, most recently freed last
	free  map[int]struct{} // membership for stack
}

// NewAllocator returns an allocator with no indices handed out.
func NewAllocator() *Allocator {
	return &Allocator{free: make(map[int]struct{})}
}

// Allocate returns the most recently freed index, or the next unused one.
func (a *Allocator) Allocate() int {
	if n := len(a.stack); n > 0 {
		idx := a.stack[n-1]
		a.stack = a.stack[:n-1]
		delete(a.free, idx)
		return idx
	}

	idx := a.next
	a.next++
	return idx
}

// Free returns index to the free set.
func (a *Allocator) Free(index int) error {
	if index < 0 || index >= a.next {
		return fmt.Errorf("free %d: %w", index, ErrNotAllocated)
	}
	if _, ok := a.free[index]; ok {
		return fmt.Errorf("free %d: %w", index, ErrDoubleFree)
	}

	a.stack = append(a.stack, index)
	a.free[index] = struct{}{}
	return nil
}

// Reclaim removes a specific index from the free set so it can be used
// without going through Allocate. The order of the remaining free indices is
// preserved.
func (a *Allocator) Reclaim(index int) error {
	if _, ok := a.free[index]; !ok {
		return fmt.Errorf("reclaim %d: %w", index, ErrNotFree)
	}

	for i := len(a.stack) - 1; i >= 0; i-- {
		if a.stack[i] == index {
			a.stack = append(a.stack[:i], a.stack[i+1:]...)
			break
		}
	}
	delete(a.free, index)
	return nil
}

// IsFree reports whether index is in the free set.
func (a *Allocator) IsFree(index int) bool {
	_, ok := a.free[index]
	return ok
}

// FreeCount returns the number of free indices.
func (a *Allocator) FreeCount() int {
	return len(a.stack)
}

// Len returns the high-water mark: one past the highest index ever handed out.
func (a *Allocator) Len() int {
	return a.next
}

// FreeList returns the free indices in reuse order, next to be allocated first.
func (a *Allocator) FreeList() []int {
	out := make([]int, len(a.stack))
	for i, idx := range a.stack {
		out[len(a.stack)-1-i] = idx
	}
	return out
}
