package harness

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/obstore/internal/ir"
)

// eventObject renders a feed event for canonical marshaling. Absent sides
// are omitted.
func eventObject(e FeedEvent) ir.IRObject {
	obj := ir.IRObject{
		"seq":        ir.IRInt(e.Seq),
		"subscriber": ir.IRInt(e.Subscriber),
		"kind":       ir.IRString(e.Change.Kind()),
	}
	if e.Change.Previous != nil {
		obj["previous"] = itemObject(e.Change.Previous)
	}
	if e.Change.Current != nil {
		obj["current"] = itemObject(e.Change.Current)
	}
	return obj
}

func itemObject(it *ir.Item) ir.IRObject {
	fields := it.Fields
	if fields == nil {
		fields = ir.IRObject{}
	}
	return ir.IRObject{"index": ir.IRInt(it.Index), "fields": fields}
}

// FormatFeed renders a feed as one canonical JSON object per line.
// The output is byte-stable and is what golden files hold.
func FormatFeed(feed []FeedEvent) ([]byte, error) {
	var buf bytes.Buffer
	for _, e := range feed {
		line, err := ir.MarshalCanonical(eventObject(e))
		if err != nil {
			return nil, err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its feed against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass. Feed mismatches fail t
// through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's feed against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := FormatFeed(result.Feed)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
