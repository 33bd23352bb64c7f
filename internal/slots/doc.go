// Package slots provides the index bookkeeping under the store: an Allocator
// that hands out and recycles integer indices, and a Table that holds one
// item (or a tombstone) per index.
//
// Neither type is safe for concurrent use. The store drives both from a
// single goroutine.
package slots
