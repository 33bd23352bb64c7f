package harness

import "github.com/roach88/obstore/internal/ir"

// FeedEvent is one change record as received by a scenario subscriber.
type FeedEvent struct {
	// Seq orders events across all subscribers.
	Seq int64 `json:"seq"`

	// Subscriber is the 1-based number of the subscribe step that received it.
	Subscriber int `json:"subscriber"`

	// Change is the record itself.
	Change ir.Change `json:"change"`
}

// Result is the outcome of running a scenario.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Feed holds every event delivered to any subscriber, in delivery order.
	Feed []FeedEvent `json:"feed"`

	// Errors describes each failed expectation or assertion.
	Errors []string `json:"errors,omitempty"`

	// Size, Items and FreeSlots capture the store after the last step.
	Size      int        `json:"size"`
	Items     []*ir.Item `json:"items"`
	FreeSlots []int      `json:"free_slots"`
}

// NewResult creates a passing result with no events.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Feed:      []FeedEvent{},
		Errors:    []string{},
		Items:     []*ir.Item{},
		FreeSlots: []int{},
	}
}

// AddError records a failure and marks the result failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddFeedEvent appends a delivered record.
func (r *Result) AddFeedEvent(subscriber int, c ir.Change, seq int64) {
	r.Feed = append(r.Feed, FeedEvent{Seq: seq, Subscriber: subscriber, Change: c})
}

// FeedFor returns the events one subscriber received.
func (r *Result) FeedFor(subscriber int) []FeedEvent {
	var out []FeedEvent
	for _, e := range r.Feed {
		if e.Subscriber == subscriber {
			out = append(out, e)
		}
	}
	return out
}
