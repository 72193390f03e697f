package harness

import (
	"github.com/roach88/latchlist/internal/engine"
	"github.com/roach88/latchlist/internal/ir"
	"github.com/roach88/latchlist/internal/latchlist"
)

// TraceEvent records one applied step.
type TraceEvent struct {
	Seq        int64    `json:"seq"`
	Op         string   `json:"op"`
	ID         string   `json:"id,omitempty"`
	Index      *int     `json:"index,omitempty"`
	Order      string   `json:"order,omitempty"`
	Error      string   `json:"error,omitempty"`
	Updated    []string `json:"updated,omitempty"`
	Renumbered []string `json:"renumbered,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace has one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors lists failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Renumbered collects the ids reported by every renumber, in order.
	Renumbered []string `json:"renumbered,omitempty"`

	// Final is the list after the last step.
	Final []engine.Positioned `json:"final"`

	// OK and Violations are the invariant check of the final list.
	OK         bool                  `json:"ok"`
	Violations []latchlist.Violation `json:"violations,omitempty"`

	// Snapshot is the stored state after the last step.
	Snapshot ir.Snapshot `json:"snapshot"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
	r.Renumbered = append(r.Renumbered, ev.Renumbered...)
}

// FinalIDs returns the ids of the final list in order.
func (r *Result) FinalIDs() []string {
	ids := make([]string, len(r.Final))
	for i, p := range r.Final {
		ids[i] = p.Item.ID
	}
	return ids
}

// toObject renders ev for golden comparison. Orders travel as strings.
func (ev TraceEvent) toObject() ir.IRObject {
	obj := ir.IRObject{
		"seq": ir.IRInt(ev.Seq),
		"op":  ir.IRString(ev.Op),
	}
	if ev.ID != "" {
		obj["id"] = ir.IRString(ev.ID)
	}
	if ev.Index != nil {
		obj["index"] = ir.IRInt(*ev.Index)
	}
	if ev.Order != "" {
		obj["order"] = ir.IRString(ev.Order)
	}
	if ev.Error != "" {
		obj["error"] = ir.IRString(ev.Error)
	}
	if len(ev.Updated) > 0 {
		obj["updated"] = stringArray(ev.Updated)
	}
	if len(ev.Renumbered) > 0 {
		obj["renumbered"] = stringArray(ev.Renumbered)
	}
	return obj
}

func stringArray(ss []string) ir.IRArray {
	arr := make(ir.IRArray, len(ss))
	for i, s := range ss {
		arr[i] = ir.IRString(s)
	}
	return arr
}
