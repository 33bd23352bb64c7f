package feed

import (
	"log/slog"

	"github.com/roach88/obstore/internal/ir"
)

// Observer receives change records.
type Observer interface {
	Next(ir.Change)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ir.Change)

// Next calls f(c).
func (f ObserverFunc) Next(c ir.Change) { f(c) }

// Option configures an Emitter.
type Option func(*Emitter)

// WithBacklogLimit keeps at most n records in the backlog, dropping the
// oldest first. n <= 0 means unbounded, which is the default.
func WithBacklogLimit(n int) Option {
	return func(e *Emitter) {
		e.limit = n
	}
}

// WithTap sends every emitted record to obs exactly once, at emit time,
// whether or not a subscriber is attached. A tap is never replayed to and
// never replaced by Subscribe. Used for journaling.
func WithTap(obs Observer) Option {
	return func(e *Emitter) {
		e.tap = obs
	}
}

// Emitter buffers change records until an observer subscribes, then
// forwards them.
type Emitter struct {
	backlog []ir.Change
	limit   int
	active  *Subscription
	dropped int
	tap     Observer
}

// New creates an unsubscribed emitter with an empty backlog.
func New(opts ...Option) *Emitter {
	e := &Emitter{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Emit delivers c to the active observer, or appends it to the backlog when
// there is none.
func (e *Emitter) Emit(c ir.Change) {
	if e.tap != nil {
		e.tap.Next(c)
	}
	if e.active != nil {
		e.active.observer.Next(c)
		return
	}

	e.backlog = append(e.backlog, c)
	if e.limit > 0 && len(e.backlog) > e.limit {
		over := len(e.backlog) - e.limit
		// Zero the dropped records so their items can be collected.
		clear(e.backlog[:over])
		e.backlog = e.backlog[over:]
		e.dropped += over
	}
}

// Subscribe replays the backlog to obs and makes obs the active observer.
// A previously active observer is replaced.
func (e *Emitter) Subscribe(obs Observer) *Subscription {
	if e.active != nil {
		slog.Debug("feed: replacing active subscriber")
	}
	slog.Debug("feed: replaying backlog", "records", len(e.backlog), "dropped", e.dropped)

	for _, c := range e.backlog {
		obs.Next(c)
	}

	sub := &Subscription{emitter: e, observer: obs}
	e.active = sub
	return sub
}

// Subscribed reports whether an observer is attached.
func (e *Emitter) Subscribed() bool {
	return e.active != nil
}

// Backlog returns a copy of the retained records, oldest first.
func (e *Emitter) Backlog() []ir.Change {
	out := make([]ir.Change, len(e.backlog))
	copy(out, e.backlog)
	return out
}

// Dropped returns how many records the backlog limit has discarded.
func (e *Emitter) Dropped() int {
	return e.dropped
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	emitter  *Emitter
	observer Observer
}

// Active reports whether this subscription still receives records.
func (s *Subscription) Active() bool {
	return s.emitter.active == s
}

// Unsubscribe detaches the observer if this subscription is still the
// active one. Detaching a superseded subscription does nothing.
func (s *Subscription) Unsubscribe() {
	if s.emitter.active == s {
		s.emitter.active = nil
	}
}
