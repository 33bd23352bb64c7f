package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of store operations with expectations.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Capacity is passed to the store as a capacity hint.
	Capacity int `yaml:"capacity,omitempty"`

	// BacklogLimit caps records retained before the first subscriber.
	BacklogLimit int `yaml:"backlog_limit,omitempty"`

	// Steps run in order. A failed expectation is recorded and the run
	// continues.
	Steps []Step `yaml:"steps"`

	// Assertions are checked against the final store state and feed.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one operation. Exactly one of the operation keys is set.
//
// Operation arguments are kept as raw YAML nodes: an absent key and an
// explicit null must stay distinguishable (create: null is a test case).
type Step struct {
	Create      yaml.Node `yaml:"create"`
	Update      yaml.Node `yaml:"update"`
	Delete      yaml.Node `yaml:"delete"`
	Item        yaml.Node `yaml:"item"`
	Subscribe   bool      `yaml:"subscribe"`
	Unsubscribe bool      `yaml:"unsubscribe"`

	// Expect checks the step outcome. Without it the step must not fail.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Step operation names.
const (
	OpCreate      = "create"
	OpUpdate      = "update"
	OpDelete      = "delete"
	OpItem        = "item"
	OpSubscribe   = "subscribe"
	OpUnsubscribe = "unsubscribe"
)

// Op returns the operation the step names, or "" if it names none.
// Validation guarantees exactly one for loaded scenarios.
func (s *Step) Op() string {
	ops := s.ops()
	if len(ops) != 1 {
		return ""
	}
	return ops[0]
}

func (s *Step) ops() []string {
	var ops []string
	if present(&s.Create) {
		ops = append(ops, OpCreate)
	}
	if present(&s.Update) {
		ops = append(ops, OpUpdate)
	}
	if present(&s.Delete) {
		ops = append(ops, OpDelete)
	}
	if present(&s.Item) {
		ops = append(ops, OpItem)
	}
	if s.Subscribe {
		ops = append(ops, OpSubscribe)
	}
	if s.Unsubscribe {
		ops = append(ops, OpUnsubscribe)
	}
	return ops
}

// updateArgs is the mapping under an update key.
type updateArgs struct {
	Index  yaml.Node `yaml:"index"`
	Fields yaml.Node `yaml:"fields"`
}

// Expect describes the expected outcome of a step.
type Expect struct {
	// Error is the expected store error code, e.g. INDEX_OUT_OF_RANGE.
	Error string `yaml:"error,omitempty"`

	// Index is the expected index of the returned item.
	Index *int `yaml:"index,omitempty"`

	// Fields are the expected fields of the returned item, matched exactly.
	Fields map[string]any `yaml:"fields,omitempty"`

	// Empty expects no item back: item on a free slot, or update with null.
	Empty bool `yaml:"empty,omitempty"`

	// Size is the expected live count after the step.
	Size *int `yaml:"size,omitempty"`

	// Replayed is the number of backlog records a subscribe step delivers.
	Replayed *int `yaml:"replayed,omitempty"`
}

// Assertion checks the final state of a run.
type Assertion struct {
	// Type is one of size, items, feed_count, free_slots.
	Type string `yaml:"type"`

	// Count is used by size and feed_count.
	Count *int `yaml:"count,omitempty"`

	// Subscriber restricts feed_count to one subscriber. 0 counts all.
	Subscriber int `yaml:"subscriber,omitempty"`

	// Items is used by items.
	Items []ExpectedItem `yaml:"items,omitempty"`

	// Slots is used by free_slots.
	Slots []int `yaml:"slots,omitempty"`
}

// ExpectedItem is an item as written in a scenario.
type ExpectedItem struct {
	Index  int            `yaml:"index"`
	Fields map[string]any `yaml:"fields"`
}

// Assertion type constants.
const (
	AssertSize      = "size"
	AssertItems     = "items"
	AssertFeedCount = "feed_count"
	AssertFreeSlots = "free_slots"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown keys are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// FindScenarios returns the .yaml and .yml files under dir, sorted.
func FindScenarios(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		ext := filepath.Ext(path)
		if !info.IsDir() && (ext == ".yaml" || ext == ".yml") {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.Capacity < 0 {
		return fmt.Errorf("capacity must be non-negative")
	}
	if s.BacklogLimit < 0 {
		return fmt.Errorf("backlog_limit must be non-negative")
	}

	for i := range s.Steps {
		if err := validateStep(i, &s.Steps[i]); err != nil {
			return err
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step *Step) error {
	ops := step.ops()
	switch len(ops) {
	case 0:
		return fmt.Errorf("steps[%d]: no operation (want one of create, update, delete, item, subscribe, unsubscribe)", index)
	case 1:
	default:
		return fmt.Errorf("steps[%d]: more than one operation: %v", index, ops)
	}

	if ops[0] == OpUpdate {
		if step.Update.Kind != yaml.MappingNode {
			return fmt.Errorf("steps[%d]: update takes a mapping with index and fields", index)
		}
		var args updateArgs
		if err := step.Update.Decode(&args); err != nil {
			return fmt.Errorf("steps[%d]: update: %w", index, err)
		}
		if !present(&args.Index) || !present(&args.Fields) {
			return fmt.Errorf("steps[%d]: update needs both index and fields (fields: null deletes)", index)
		}
	}

	if e := step.Expect; e != nil {
		if e.Replayed != nil && ops[0] != OpSubscribe {
			return fmt.Errorf("steps[%d].expect: replayed only applies to subscribe", index)
		}
		if e.Empty && (e.Index != nil || e.Fields != nil) {
			return fmt.Errorf("steps[%d].expect: empty excludes index and fields", index)
		}
		if e.Error != "" && (e.Index != nil || e.Fields != nil || e.Empty) {
			return fmt.Errorf("steps[%d].expect: error excludes index, fields and empty", index)
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertSize, AssertFeedCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for %s", index, a.Type)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertItems:
		if a.Items == nil {
			return fmt.Errorf("assertions[%d]: items is required for items (use [] for none)", index)
		}
	case AssertFreeSlots:
		if a.Slots == nil {
			return fmt.Errorf("assertions[%d]: slots is required for free_slots (use [] for none)", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// present reports whether a key was written, including as null.
func present(n *yaml.Node) bool {
	return n.Kind != 0
}

// decodeLoose decodes a node into plain Go values. Null decodes to nil.
func decodeLoose(n *yaml.Node) (any, error) {
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
