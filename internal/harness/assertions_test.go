package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/latchlist/internal/engine"
	"github.com/roach88/latchlist/internal/latchlist"
)

func boolPtr(b bool) *bool { return &b }

func finalResult() *Result {
	r := NewResult()
	r.Final = []engine.Positioned{
		{Index: 0, Item: engine.Item{ID: "a", Order: 10, Latched: 0}},
		{Index: 1, Item: engine.Item{ID: "b", Order: 20, Latched: latchlist.Unlatched}},
	}
	r.OK = true
	r.AddTrace(TraceEvent{Seq: 1, Op: "renumber", Renumbered: []string{"b"}})
	return r
}

func TestEvaluateAssertions_AllPass(t *testing.T) {
	errs := EvaluateAssertions(finalResult(), []Assertion{
		{Type: AssertOrderIDs, IDs: []string{"a", "b"}},
		{Type: AssertCheckOrder},
		{Type: AssertRenumbered, IDs: []string{"b"}, Count: intPtr(1)},
		{Type: AssertLatched, ID: "a", Slot: intPtr(0)},
		{Type: AssertLatched, ID: "b", Slot: intPtr(-1)},
		{Type: AssertCount, Count: intPtr(2)},
	})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{"order", Assertion{Type: AssertOrderIDs, IDs: []string{"b", "a"}}, "Assertion failed: order_ids"},
		{"check order", Assertion{Type: AssertCheckOrder, OK: boolPtr(false)}, "Expected: ok=false"},
		{"renumbered count", Assertion{Type: AssertRenumbered, Count: intPtr(3)}, "Expected: 3 renumbered"},
		{"renumbered ids", Assertion{Type: AssertRenumbered, IDs: []string{"a"}}, "Actual: [b]"},
		{"latched slot", Assertion{Type: AssertLatched, ID: "b", Slot: intPtr(1)}, "b latched=-1 at index 1"},
		{"latched missing", Assertion{Type: AssertLatched, ID: "z", Slot: intPtr(0)}, "z not in list"},
		{"count", Assertion{Type: AssertCount, Count: intPtr(5)}, "Actual: 2 items"},
		{"unknown", Assertion{Type: "trace_order"}, `unknown assertion type "trace_order"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(finalResult(), []Assertion{tt.assertion})
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.want)
			assert.Contains(t, errs[0], "assertions[0]")
		})
	}
}

func TestAssertCheckOrder_ReportsViolations(t *testing.T) {
	r := finalResult()
	r.OK = false
	r.Violations = []latchlist.Violation{{Index: 1, ID: "b", Reason: "order not increasing"}}

	errs := EvaluateAssertions(r, []Assertion{{Type: AssertCheckOrder}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "[1] b: order not increasing")
}

func TestAssertionError_Format(t *testing.T) {
	index := 2
	err := &AssertionError{
		Type:     AssertCount,
		Expected: "3 items",
		Actual:   "2 items",
		Trace: []TraceEvent{
			{Seq: 1, Op: "append", ID: "a", Index: &index, Order: "30"},
			{Seq: 2, Op: "delete", ID: "ghost", Error: "NOT_FOUND"},
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: count")
	assert.Contains(t, msg, "Expected: 3 items")
	assert.Contains(t, msg, "Actual: 2 items")
	assert.Contains(t, msg, "[1] append a @2 (30)")
	assert.Contains(t, msg, "[2] delete ghost error=NOT_FOUND")
}
