package slots

import (
	"errors"
	"fmt"

	"github.com/roach88/obstore/internal/ir"
)

// ErrIndexOutOfRange is returned for an index outside the table's bounds.
var ErrIndexOutOfRange = errors.New("index out of range")

// Table is an array of cells addressed by index. A cell holds a live item or
// nil (a tombstone left by a delete).
type Table struct {
	cells []*ir.Item
}

// NewTable returns an empty table. capacity is only a sizing hint for the
// backing array; the table still starts with length zero.
func NewTable(capacity int) *Table {
	if capacity < 0 {
		capacity = 0
	}
	return &Table{cells: make([]*ir.Item, 0, capacity)}
}

// Get returns the item at index, or nil if the cell is a tombstone.
func (t *Table) Get(index int) (*ir.Item, error) {
	if index < 0 || index >= len(t.cells) {
		return nil, t.outOfRange(index)
	}
	return t.cells[index], nil
}

// Set overwrites the cell at index. Setting index == Len() appends one cell;
// anything past that would leave a gap and is rejected.
func (t *Table) Set(index int, item *ir.Item) error {
	switch {
	case index == len(t.cells):
		t.cells = append(t.cells, item)
	case index >= 0 && index < len(t.cells):
		t.cells[index] = item
	default:
		return t.outOfRange(index)
	}
	return nil
}

// Live returns the non-empty cells in ascending index order.
func (t *Table) Live() []*ir.Item {
	out := make([]*ir.Item, 0, len(t.cells))
	for _, it := range t.cells {
		if it != nil {
			out = append(out, it)
		}
	}
	return out
}

// Len returns the number of cells, live or not.
func (t *Table) Len() int {
	return len(t.cells)
}

func (t *Table) outOfRange(index int) error {
	return fmt.Errorf("index %d with %d cells: %w", index, len(t.cells), ErrIndexOutOfRange)
}
