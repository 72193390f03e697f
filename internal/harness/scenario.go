package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/latchlist/internal/engine"
	"github.com/roach88/latchlist/internal/latchlist"
	"github.com/roach88/latchlist/internal/orderkey"
)

// Scenario drives one list through a sequence of operations and checks
// the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Options overrides the key options. Unset fields keep the defaults.
	Options *OptionsSpec `yaml:"options,omitempty"`

	// Items is the initial population. It is stored as given and then
	// loaded, so unsorted keys and stale latches are repaired on load.
	Items []ItemSpec `yaml:"items,omitempty"`

	// Steps are applied in order.
	Steps []Step `yaml:"steps"`

	// Assertions are checked against the final list.
	Assertions []Assertion `yaml:"assertions"`

	// IDPrefix names items inserted without an id: "<prefix>-1", ...
	// Defaults to "item".
	IDPrefix string `yaml:"id_prefix,omitempty"`
}

// OptionsSpec is the YAML form of orderkey.Options.
type OptionsSpec struct {
	Step      float64 `yaml:"step,omitempty"`
	Precision *int    `yaml:"precision,omitempty"`
}

// ItemSpec is one item of the initial population.
type ItemSpec struct {
	ID      string         `yaml:"id"`
	Order   float64        `yaml:"order"`
	Latched *int           `yaml:"latched,omitempty"`
	Payload map[string]any `yaml:"payload,omitempty"`
}

// Step is one operation.
type Step struct {
	// Op is insert, append, move, delete, lock, unlock, reconcile,
	// renumber or check.
	Op string `yaml:"op"`

	ID       string         `yaml:"id,omitempty"`
	Position int            `yaml:"position,omitempty"`
	Lock     bool           `yaml:"lock,omitempty"`
	Payload  map[string]any `yaml:"payload,omitempty"`

	// Expect checks the step result. If nil the step must succeed.
	Expect *StepExpect `yaml:"expect,omitempty"`
}

// StepExpect describes the expected effect of a step.
type StepExpect struct {
	// Index is the index the item ends up at.
	Index *int `yaml:"index,omitempty"`

	// Error is the expected error code: RANGE, DUPLICATE_ID or NOT_FOUND.
	Error string `yaml:"error,omitempty"`

	// Updated lists the ids a reconcile reports, in order.
	Updated []string `yaml:"updated,omitempty"`

	// IDs is the full order after the step.
	IDs []string `yaml:"ids,omitempty"`

	// Renumbered is the number of items the step renumbered.
	Renumbered *int `yaml:"renumbered,omitempty"`
}

// Assertion checks the final list.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// IDs is the expected order (order_ids) or the expected renumbered
	// ids across the whole run (renumbered).
	IDs []string `yaml:"ids,omitempty"`

	// OK is the expected CheckOrder result (check_order). Defaults to true.
	OK *bool `yaml:"ok,omitempty"`

	// Count is the expected list length (count) or number of renumbered
	// items (renumbered).
	Count *int `yaml:"count,omitempty"`

	// ID and Slot name an item and its expected latch (latched). Slot -1
	// means unlatched.
	ID   string `yaml:"id,omitempty"`
	Slot *int   `yaml:"slot,omitempty"`
}

// Assertion types.
const (
	AssertOrderIDs   = "order_ids"
	AssertCheckOrder = "check_order"
	AssertRenumbered = "renumbered"
	AssertLatched    = "latched"
	AssertCount      = "count"
)

var errorCodes = map[string]bool{
	string(latchlist.ErrCodeRange):       true,
	string(latchlist.ErrCodeDuplicateID): true,
	string(latchlist.ErrCodeNotFound):    true,
}

// KeyOptions returns the scenario's key options.
func (s *Scenario) KeyOptions() orderkey.Options {
	opts := orderkey.DefaultOptions()
	if s.Options == nil {
		return opts
	}
	if s.Options.Step != 0 {
		opts.Step = s.Options.Step
	}
	if s.Options.Precision != nil {
		opts.Precision = *s.Options.Precision
	}
	return opts
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so that typos surface as errors.
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
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if err := s.KeyOptions().Validate(); err != nil {
		return fmt.Errorf("options: %w", err)
	}

	seen := make(map[string]bool, len(s.Items))
	for i, it := range s.Items {
		if it.ID == "" {
			return fmt.Errorf("items[%d]: id is required", i)
		}
		if seen[it.ID] {
			return fmt.Errorf("items[%d]: duplicate id %q", i, it.ID)
		}
		seen[it.ID] = true
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step *Step) error {
	op, err := engine.ParseOp(step.Op)
	if err != nil {
		return fmt.Errorf("steps[%d]: %w", index, err)
	}
	switch op {
	case engine.OpMove, engine.OpDelete, engine.OpLock, engine.OpUnlock:
		if step.ID == "" {
			return fmt.Errorf("steps[%d]: id is required for %s", index, op)
		}
	case engine.OpList:
		return fmt.Errorf("steps[%d]: list is not a scenario step", index)
	}
	if step.Expect != nil && step.Expect.Error != "" && !errorCodes[step.Expect.Error] {
		return fmt.Errorf("steps[%d].expect: unknown error code %q", index, step.Expect.Error)
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertOrderIDs:
		if a.IDs == nil {
			return fmt.Errorf("assertions[%d]: ids is required for order_ids", index)
		}
	case AssertCheckOrder:
	case AssertRenumbered:
		if a.IDs == nil && a.Count == nil {
			return fmt.Errorf("assertions[%d]: ids or count is required for renumbered", index)
		}
	case AssertLatched:
		if a.ID == "" || a.Slot == nil {
			return fmt.Errorf("assertions[%d]: id and slot are required for latched", index)
		}
	case AssertCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
