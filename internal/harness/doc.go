// Package harness runs YAML scenarios against a store and checks the
// observed change feed.
//
// # Scenario Format
//
//	name: reuse_after_delete
//	description: "Deleted indices are reused most recent first"
//	capacity: 4          # optional store capacity hint
//	backlog_limit: 0     # optional, 0 keeps every record
//	steps:
//	  - subscribe: true
//	  - create: { value: 1 }
//	    expect: { index: 0, size: 1 }
//	  - update: { index: 0, fields: { extra: true } }
//	    expect: { fields: { value: 1, extra: true } }
//	  - update: { index: 0, fields: null }   # delete via update
//	    expect: { empty: true, size: 0 }
//	  - delete: 0
//	  - item: 5
//	    expect: { error: INDEX_OUT_OF_RANGE }
//	  - unsubscribe: true
//	assertions:
//	  - type: size
//	    count: 0
//	  - type: items
//	    items: []
//	  - type: feed_count
//	    count: 4
//
// Step arguments are passed to the store exactly as decoded from YAML, so a
// scenario can feed it wrong shapes (create: null, delete: "0") and expect
// INVALID_ARGUMENT.
//
// # Subscribers
//
// Each subscribe step attaches a new numbered observer (1, 2, ...). Every
// record an observer receives, replayed or live, becomes a FeedEvent stamped
// with a seq from a deterministic clock, so the same scenario always
// produces the same feed.
//
// # Assertion Types
//
//   - size: live item count equals count
//   - items: live items, index ascending, equal items exactly
//   - feed_count: number of feed events, optionally for one subscriber
//   - free_slots: free indices in reuse order equal slots
//
// # Golden Files
//
// RunWithGolden compares the feed against testdata/golden/<name>.golden,
// one canonical JSON record per line. Regenerate with:
//
//	go test ./internal/harness -update
package harness
