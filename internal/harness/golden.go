package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/latchlist/internal/ir"
)

// GoldenBytes renders the canonical JSON compared against golden files:
// the scenario name, its trace and the final stored snapshot.
func GoldenBytes(name string, result *Result) ([]byte, error) {
	trace := make(ir.IRArray, len(result.Trace))
	for i, ev := range result.Trace {
		trace[i] = ev.toObject()
	}
	return ir.MarshalCanonical(ir.IRObject{
		"scenario": ir.IRString(name),
		"trace":    trace,
		"snapshot": result.Snapshot.Object(),
	})
}

// RunWithGolden executes a scenario and compares its output against
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return result, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := GoldenBytes(name, result)
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
