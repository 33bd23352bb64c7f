// Package store is the public face of obstore: an in-memory, index-addressed
// item store that emits a change record for every mutation.
//
// Every mutating call follows the same order:
//  1. validate arguments (no state is touched on failure)
//  2. obtain or release an index through the slot allocator
//  3. write the item table
//  4. emit one {previous, current} change to the feed
//
// Reads (Item, Items, Size) never emit.
//
// # Indices
//
// CreateItem takes the most recently freed index first, and only grows the
// table when no index is free. An index is never shared by two live items.
//
// # Deletes
//
// DeleteItem(i) and UpdateItem(i, nil) are equivalent. Deleting an already
// empty slot is allowed and still emits a {nil, nil} record.
//
// # Snapshots
//
// Items handed to callers and observers are deep copies. Mutating them never
// changes the store, and a record in the backlog keeps describing the state
// at the time it was emitted.
//
// A Store is not safe for concurrent use.
package store
