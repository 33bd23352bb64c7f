package harness

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/roach88/obstore/internal/feed"
	"github.com/roach88/obstore/internal/ir"
	"github.com/roach88/obstore/internal/store"
	"github.com/roach88/obstore/internal/testutil"
)

// Option configures a run.
type Option func(*runConfig)

type runConfig struct {
	tap feed.Observer
}

// WithTap attaches obs as the store's tap for the run, so it sees every
// change exactly once regardless of the scenario's subscribe steps. The CLI
// uses this to journal a run.
func WithTap(obs feed.Observer) Option {
	return func(c *runConfig) {
		c.tap = obs
	}
}

// Harness executes one scenario against a fresh store.
type Harness struct {
	store  *store.Store
	clock  *testutil.SeqClock
	result *Result
	subs   []*feed.Subscription
}

// subscriber is the observer attached by a subscribe step.
type subscriber struct {
	h  *Harness
	id int
}

func (s *subscriber) Next(c ir.Change) {
	s.h.result.AddFeedEvent(s.id, c, s.h.clock.Next())
}

// Run executes a scenario and returns its result.
//
// Failed expectations and assertions are reported in Result.Errors; the
// returned error is reserved for scenarios that cannot run at all.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	if scenario == nil {
		return nil, fmt.Errorf("nil scenario")
	}

	cfg := runConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	h := &Harness{
		store: store.New(
			store.WithCapacity(scenario.Capacity),
			store.WithBacklogLimit(scenario.BacklogLimit),
			store.WithTap(cfg.tap),
		),
		clock:  testutil.NewSeqClock(),
		result: NewResult(),
	}

	for i := range scenario.Steps {
		if err := h.executeStep(i, &scenario.Steps[i]); err != nil {
			return nil, err
		}
	}

	h.result.Size = h.store.Size()
	h.result.Items = h.store.Items()
	h.result.FreeSlots = h.store.FreeSlots()

	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions) {
		h.result.AddError(msg)
	}

	slog.Debug("scenario finished",
		"scenario", scenario.Name,
		"pass", h.result.Pass,
		"events", len(h.result.Feed),
		"errors", len(h.result.Errors))
	return h.result, nil
}

// outcome is what a step produced.
type outcome struct {
	item     *ir.Item
	err      error
	replayed int
}

// executeStep runs one step and checks its expectation. A returned error
// means the step could not be interpreted.
func (h *Harness) executeStep(i int, step *Step) error {
	op := step.Op()
	var out outcome

	switch op {
	case OpCreate:
		v, err := decodeLoose(&step.Create)
		if err != nil {
			return fmt.Errorf("steps[%d]: create: %w", i, err)
		}
		fields, err := store.ParseFields(store.OpCreate, v)
		if err == nil {
			out.item, err = h.store.CreateItem(fields)
		}
		out.err = err

	case OpUpdate:
		var args updateArgs
		if err := step.Update.Decode(&args); err != nil {
			return fmt.Errorf("steps[%d]: update: %w", i, err)
		}
		rawIndex, err := decodeLoose(&args.Index)
		if err != nil {
			return fmt.Errorf("steps[%d]: update index: %w", i, err)
		}
		rawFields, err := decodeLoose(&args.Fields)
		if err != nil {
			return fmt.Errorf("steps[%d]: update fields: %w", i, err)
		}
		out.err = h.update(rawIndex, rawFields, &out)

	case OpDelete:
		v, err := decodeLoose(&step.Delete)
		if err != nil {
			return fmt.Errorf("steps[%d]: delete: %w", i, err)
		}
		index, err := store.ParseIndex(store.OpDelete, v)
		if err == nil {
			err = h.store.DeleteItem(index)
		}
		out.err = err

	case OpItem:
		v, err := decodeLoose(&step.Item)
		if err != nil {
			return fmt.Errorf("steps[%d]: item: %w", i, err)
		}
		index, err := store.ParseIndex(store.OpItem, v)
		if err == nil {
			out.item, err = h.store.Item(index)
		}
		out.err = err

	case OpSubscribe:
		sub := &subscriber{h: h, id: len(h.subs) + 1}
		before := len(h.result.Feed)
		h.subs = append(h.subs, h.store.Subscribe(sub))
		out.replayed = len(h.result.Feed) - before

	case OpUnsubscribe:
		if len(h.subs) == 0 {
			h.result.AddError(fmt.Sprintf("steps[%d]: unsubscribe without a subscription", i))
			return nil
		}
		h.subs[len(h.subs)-1].Unsubscribe()

	default:
		return fmt.Errorf("steps[%d]: no single operation", i)
	}

	slog.Debug("step executed", "step", i, "op", op, "error", out.err)
	h.checkExpect(i, op, step.Expect, out)
	return nil
}

func (h *Harness) update(rawIndex, rawFields any, out *outcome) error {
	index, err := store.ParseIndex(store.OpUpdate, rawIndex)
	if err != nil {
		return err
	}
	fields, err := store.ParseFields(store.OpUpdate, rawFields)
	if err != nil {
		return err
	}
	out.item, err = h.store.UpdateItem(index, fields)
	return err
}

// checkExpect compares a step outcome with its expectation.
func (h *Harness) checkExpect(i int, op string, expect *Expect, out outcome) {
	prefix := fmt.Sprintf("steps[%d] (%s)", i, op)

	if expect == nil || expect.Error == "" {
		if out.err != nil {
			h.result.AddError(fmt.Sprintf("%s: unexpected error: %v", prefix, out.err))
			return
		}
	} else {
		code := store.CodeOf(out.err)
		switch {
		case out.err == nil:
			h.result.AddError(fmt.Sprintf("%s: expected error %s, got success", prefix, expect.Error))
		case string(code) != expect.Error:
			h.result.AddError(fmt.Sprintf("%s: expected error %s, got %v", prefix, expect.Error, out.err))
		}
	}
	if expect == nil {
		return
	}

	if expect.Index != nil {
		switch {
		case out.item == nil:
			h.result.AddError(fmt.Sprintf("%s: expected index %d, got no item", prefix, *expect.Index))
		case out.item.Index != *expect.Index:
			h.result.AddError(fmt.Sprintf("%s: expected index %d, got %d", prefix, *expect.Index, out.item.Index))
		}
	}

	if expect.Fields != nil {
		want, err := toFields(expect.Fields)
		switch {
		case err != nil:
			h.result.AddError(fmt.Sprintf("%s: expect.fields: %v", prefix, err))
		case out.item == nil:
			h.result.AddError(fmt.Sprintf("%s: expected fields %v, got no item", prefix, expect.Fields))
		case !reflect.DeepEqual(want, out.item.Fields):
			h.result.AddError(fmt.Sprintf("%s: expected fields %s, got %s", prefix, formatFields(want), formatFields(out.item.Fields)))
		}
	}

	if expect.Empty && out.item != nil {
		h.result.AddError(fmt.Sprintf("%s: expected no item, got index %d", prefix, out.item.Index))
	}

	if expect.Size != nil && h.store.Size() != *expect.Size {
		h.result.AddError(fmt.Sprintf("%s: expected size %d, got %d", prefix, *expect.Size, h.store.Size()))
	}

	if expect.Replayed != nil && out.replayed != *expect.Replayed {
		h.result.AddError(fmt.Sprintf("%s: expected %d replayed records, got %d", prefix, *expect.Replayed, out.replayed))
	}
}

// toFields converts scenario YAML fields to an IRObject.
func toFields(m map[string]any) (ir.IRObject, error) {
	v, err := ir.FromAny(m)
	if err != nil {
		return nil, err
	}
	return v.(ir.IRObject), nil
}

// formatFields renders fields as canonical JSON for messages.
func formatFields(obj ir.IRObject) string {
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return fmt.Sprintf("%v", obj)
	}
	return string(data)
}
