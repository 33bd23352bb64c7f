package store

import (
	"log/slog"

	"github.com/roach88/obstore/internal/feed"
	"github.com/roach88/obstore/internal/ir"
	"github.com/roach88/obstore/internal/slots"
)

// Operation names used in errors and logs.
const (
	OpCreate = "createItem"
	OpUpdate = "updateItem"
	OpDelete = "deleteItem"
	OpItem   = "item"
)

// Option configures a Store.
type Option func(*options)

type options struct {
	capacity     int
	backlogLimit int
	tap          feed.Observer
}

// WithCapacity pre-sizes the item table for n items. It is a hint only:
// an empty store still has no addressable indices.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// WithBacklogLimit bounds the records retained before the first subscriber
// attaches. See feed.WithBacklogLimit.
func WithBacklogLimit(n int) Option {
	return func(o *options) {
		o.backlogLimit = n
	}
}

// WithTap sends every change record to obs once, at emit time, independent
// of subscription. See feed.WithTap.
func WithTap(obs feed.Observer) Option {
	return func(o *options) {
		o.tap = obs
	}
}

// Store is an in-memory, index-addressed item store with a change feed.
type Store struct {
	slots    *slots.Allocator
	table    *slots.Table
	feed     *feed.Emitter
	capacity int
}

// New creates an empty store.
func New(opts ...Option) *Store {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	return &Store{
		slots:    slots.NewAllocator(),
		table:    slots.NewTable(o.capacity),
		feed:     feed.New(feed.WithBacklogLimit(o.backlogLimit), feed.WithTap(o.tap)),
		capacity: o.capacity,
	}
}

// CreateItem stores a copy of fields under a newly allocated index, emits
// {nil, item} and returns the stored item.
//
// fields must be non-nil; an empty mapping creates an item with no fields.
// A nil value inside fields is stored as ir.IRNull.
func (s *Store) CreateItem(fields ir.IRObject) (*ir.Item, error) {
	if fields == nil {
		return nil, invalidArgument(OpCreate, -1, "fields must be a mapping, got null")
	}
	fields, err := normalizeFields(OpCreate, -1, fields)
	if err != nil {
		return nil, err
	}

	index := s.slots.Allocate()
	item := &ir.Item{Index: index, Fields: fields}
	if err := s.table.Set(index, item); err != nil {
		// Allocate only returns free cells or the next append position.
		return nil, invariantViolation(OpCreate, index, err)
	}

	slog.Debug("item created", "index", index, "size", s.Size())
	s.feed.Emit(ir.Change{Current: item.Clone()})
	return item.Clone(), nil
}

// UpdateItem merges fields onto the item at index and emits
// {merged, merged}, both sides being the same snapshot.
//
// Updating an empty slot revives it as an item holding only the new fields.
// A nil fields argument deletes instead, exactly like DeleteItem, and
// returns a nil item.
func (s *Store) UpdateItem(index int, fields ir.IRObject) (*ir.Item, error) {
	current, err := s.table.Get(index)
	if err != nil {
		return nil, outOfRange(OpUpdate, index, err)
	}

	if fields == nil {
		return nil, s.remove(OpUpdate, index, current)
	}
	fields, err = normalizeFields(OpUpdate, index, fields)
	if err != nil {
		return nil, err
	}

	if current == nil {
		if err := s.slots.Reclaim(index); err != nil {
			return nil, invariantViolation(OpUpdate, index, err)
		}
		current = &ir.Item{Index: index, Fields: ir.IRObject{}}
		if err := s.table.Set(index, current); err != nil {
			return nil, invariantViolation(OpUpdate, index, err)
		}
		slog.Debug("item revived", "index", index)
	}

	current.Fields.Merge(fields)

	slog.Debug("item updated", "index", index, "fields", len(fields))
	snap := current.Clone()
	s.feed.Emit(ir.Change{Previous: snap, Current: snap})
	return current.Clone(), nil
}

// normalizeFields copies caller fields into canonical value form, so every
// stored item can be digested and journaled.
func normalizeFields(op string, index int, fields ir.IRObject) (ir.IRObject, error) {
	out, err := fields.Normalize()
	if err != nil {
		return nil, &Error{
			Code:    ErrCodeInvalidArgument,
			Op:      op,
			Index:   index,
			Message: "fields hold an unsupported value",
			Err:     err,
		}
	}
	return out, nil
}

// DeleteItem clears the slot at index, frees the index and emits
// {previous, nil}. Deleting an empty slot is allowed and emits {nil, nil}.
func (s *Store) DeleteItem(index int) error {
	current, err := s.table.Get(index)
	if err != nil {
		return outOfRange(OpDelete, index, err)
	}
	return s.remove(OpDelete, index, current)
}

// remove implements both DeleteItem and UpdateItem(index, nil).
// Bookkeeping is checked before anything is written.
func (s *Store) remove(op string, index int, current *ir.Item) error {
	free := s.slots.IsFree(index)
	if current != nil && free {
		return invariantViolation(op, index, slots.ErrDoubleFree)
	}
	if current == nil && !free {
		return invariantViolation(op, index, slots.ErrNotFree)
	}

	if current != nil {
		if err := s.table.Set(index, nil); err != nil {
			return invariantViolation(op, index, err)
		}
		if err := s.slots.Free(index); err != nil {
			return invariantViolation(op, index, err)
		}
		slog.Debug("item deleted", "index", index, "size", s.Size())
	} else {
		slog.Debug("empty slot deleted", "index", index)
	}

	// current is no longer referenced by the table, so it can be handed out.
	s.feed.Emit(ir.Change{Previous: current})
	return nil
}

// Item returns the item at index, or nil if the slot is empty.
func (s *Store) Item(index int) (*ir.Item, error) {
	it, err := s.table.Get(index)
	if err != nil {
		return nil, outOfRange(OpItem, index, err)
	}
	return it.Clone(), nil
}

// Items returns every live item in ascending index order.
func (s *Store) Items() []*ir.Item {
	live := s.table.Live()
	for i, it := range live {
		live[i] = it.Clone()
	}
	return live
}

// Size returns the number of live items.
func (s *Store) Size() int {
	return s.table.Len() - s.slots.FreeCount()
}

// Len returns the number of addressable slots, live or empty. Valid indices
// are 0 through Len()-1.
func (s *Store) Len() int {
	return s.table.Len()
}

// Capacity returns the capacity hint the store was created with.
func (s *Store) Capacity() int {
	return s.capacity
}

// FreeSlots returns the free indices in the order they will be reused.
func (s *Store) FreeSlots() []int {
	return s.slots.FreeList()
}

// Subscribe attaches obs to the change feed. Records emitted before the
// first subscription are replayed to obs first. A later Subscribe replaces
// obs ("last subscriber wins").
func (s *Store) Subscribe(obs feed.Observer) *feed.Subscription {
	return s.feed.Subscribe(obs)
}

// Backlog returns the records retained for replay to new subscribers.
func (s *Store) Backlog() []ir.Change {
	return s.feed.Backlog()
}
