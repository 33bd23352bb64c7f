package harness

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/obstore/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string      // Assertion type for categorization
	Expected string      // Human-readable expected outcome
	Actual   string      // Human-readable actual outcome
	Feed     []FeedEvent // Full feed for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Feed) > 0 {
		fmt.Fprintf(&buf, "\nFull feed:\n")
		for _, event := range e.Feed {
			fmt.Fprintf(&buf, "  [%d] subscriber %d: %s %s\n",
				event.Seq, event.Subscriber, event.Change.Kind(), describeChange(event.Change))
		}
	}
	return buf.String()
}

func describeChange(c ir.Change) string {
	if c.Kind() == ir.ChangeNoop {
		return "(empty slot)"
	}
	return fmt.Sprintf("index=%d", c.Index())
}

func assertSize(result *Result, a Assertion) error {
	if result.Size != *a.Count {
		return &AssertionError{
			Type:     AssertSize,
			Expected: fmt.Sprintf("%d live items", *a.Count),
			Actual:   fmt.Sprintf("%d live items", result.Size),
		}
	}
	return nil
}

// assertItems checks the live items exactly, in index order.
func assertItems(result *Result, a Assertion) error {
	want := make([]*ir.Item, len(a.Items))
	for i, e := range a.Items {
		fields := ir.IRObject{}
		if e.Fields != nil {
			var err error
			if fields, err = toFields(e.Fields); err != nil {
				return fmt.Errorf("items[%d]: %w", i, err)
			}
		}
		want[i] = &ir.Item{Index: e.Index, Fields: fields}
	}

	if !reflect.DeepEqual(want, result.Items) {
		return &AssertionError{
			Type:     AssertItems,
			Expected: formatItems(want),
			Actual:   formatItems(result.Items),
		}
	}
	return nil
}

// assertFeedCount counts feed events, for one subscriber when set.
func assertFeedCount(result *Result, a Assertion) error {
	events := result.Feed
	scope := "all subscribers"
	if a.Subscriber > 0 {
		events = result.FeedFor(a.Subscriber)
		scope = fmt.Sprintf("subscriber %d", a.Subscriber)
	}

	if len(events) != *a.Count {
		return &AssertionError{
			Type:     AssertFeedCount,
			Expected: fmt.Sprintf("%d records to %s", *a.Count, scope),
			Actual:   fmt.Sprintf("%d records", len(events)),
			Feed:     result.Feed,
		}
	}
	return nil
}

func assertFreeSlots(result *Result, a Assertion) error {
	got := result.FreeSlots
	if len(got) == 0 && len(a.Slots) == 0 {
		return nil
	}
	if !reflect.DeepEqual(a.Slots, got) {
		return &AssertionError{
			Type:     AssertFreeSlots,
			Expected: fmt.Sprintf("free slots %v", a.Slots),
			Actual:   fmt.Sprintf("free slots %v", got),
		}
	}
	return nil
}

func formatItems(items []*ir.Item) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprintf("%d:%s", it.Index, formatFields(it.Fields))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertSize:
			err = assertSize(result, assertion)
		case AssertItems:
			err = assertItems(result, assertion)
		case AssertFeedCount:
			err = assertFeedCount(result, assertion)
		case AssertFreeSlots:
			err = assertFreeSlots(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}
