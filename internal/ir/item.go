package ir

// Item is a live element of the store.
//
// Index is store-owned metadata: the item's handle for as long as it is
// live. Fields is the caller's payload. Keeping the two apart means a caller
// field named "index" can never collide with the handle.
type Item struct {
	Index  int      `json:"index"`
	Fields IRObject `json:"fields"`
}

// Clone returns a deep copy of the item. Clone of nil is nil.
func (it *Item) Clone() *Item {
	if it == nil {
		return nil
	}
	return &Item{Index: it.Index, Fields: it.Fields.Clone()}
}

// Change describes one mutation: the item before and after.
// A nil side means "did not exist" or "no longer exists".
type Change struct {
	Previous *Item `json:"previous"`
	Current  *Item `json:"current"`
}

// ChangeKind classifies a change by which sides are present.
type ChangeKind string

const (
	ChangeCreate ChangeKind = "create"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
	// ChangeNoop is a delete against a slot that was already empty.
	ChangeNoop ChangeKind = "noop"
)

// Kind reports what the change did.
func (c Change) Kind() ChangeKind {
	switch {
	case c.Previous == nil && c.Current != nil:
		return ChangeCreate
	case c.Previous != nil && c.Current != nil:
		return ChangeUpdate
	case c.Previous != nil:
		return ChangeDelete
	default:
		return ChangeNoop
	}
}

// Index returns the index the change applies to, or -1 for a no-op change,
// which carries no item on either side.
func (c Change) Index() int {
	if c.Current != nil {
		return c.Current.Index
	}
	if c.Previous != nil {
		return c.Previous.Index
	}
	return -1
}
