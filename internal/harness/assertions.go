package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/go-cmp/cmp"
)

// AssertionError is returned when an assertion fails. It carries the full
// trace to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s", ev.Seq, ev.Op)
		if ev.ID != "" {
			fmt.Fprintf(&buf, " %s", ev.ID)
		}
		if ev.Index != nil {
			fmt.Fprintf(&buf, " @%d (%s)", *ev.Index, ev.Order)
		}
		if ev.Error != "" {
			fmt.Fprintf(&buf, " error=%s", ev.Error)
		}
		buf.WriteByte('\n')
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against result and returns a
// message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertOrderIDs:
			err = assertOrderIDs(result, a)
		case AssertCheckOrder:
			err = assertCheckOrder(result, a)
		case AssertRenumbered:
			err = assertRenumbered(result, a)
		case AssertLatched:
			err = assertLatched(result, a)
		case AssertCount:
			err = assertCount(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func assertOrderIDs(result *Result, a Assertion) error {
	got := result.FinalIDs()
	if diff := cmp.Diff(a.IDs, got); diff != "" {
		return &AssertionError{
			Type:     AssertOrderIDs,
			Expected: fmt.Sprintf("%v", a.IDs),
			Actual:   fmt.Sprintf("%v (-want +got):\n%s", got, diff),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertCheckOrder(result *Result, a Assertion) error {
	want := true
	if a.OK != nil {
		want = *a.OK
	}
	if result.OK == want {
		return nil
	}

	reasons := make([]string, len(result.Violations))
	for i, v := range result.Violations {
		reasons[i] = v.String()
	}
	return &AssertionError{
		Type:     AssertCheckOrder,
		Expected: fmt.Sprintf("ok=%v", want),
		Actual:   fmt.Sprintf("ok=%v %s", result.OK, strings.Join(reasons, "; ")),
		Trace:    result.Trace,
	}
}

func assertRenumbered(result *Result, a Assertion) error {
	got := result.Renumbered
	if a.Count != nil && len(got) != *a.Count {
		return &AssertionError{
			Type:     AssertRenumbered,
			Expected: fmt.Sprintf("%d renumbered", *a.Count),
			Actual:   fmt.Sprintf("%d renumbered %v", len(got), got),
			Trace:    result.Trace,
		}
	}
	if a.IDs != nil && !slices.Equal(a.IDs, got) {
		return &AssertionError{
			Type:     AssertRenumbered,
			Expected: fmt.Sprintf("%v", a.IDs),
			Actual:   fmt.Sprintf("%v", got),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertLatched(result *Result, a Assertion) error {
	for _, p := range result.Final {
		if p.Item.ID != a.ID {
			continue
		}
		if p.Item.Latched != *a.Slot {
			return &AssertionError{
				Type:     AssertLatched,
				Expected: fmt.Sprintf("%s latched=%d", a.ID, *a.Slot),
				Actual:   fmt.Sprintf("%s latched=%d at index %d", a.ID, p.Item.Latched, p.Index),
				Trace:    result.Trace,
			}
		}
		return nil
	}
	return &AssertionError{
		Type:     AssertLatched,
		Expected: fmt.Sprintf("%s latched=%d", a.ID, *a.Slot),
		Actual:   fmt.Sprintf("%s not in list", a.ID),
		Trace:    result.Trace,
	}
}

func assertCount(result *Result, a Assertion) error {
	if len(result.Final) != *a.Count {
		return &AssertionError{
			Type:     AssertCount,
			Expected: fmt.Sprintf("%d items", *a.Count),
			Actual:   fmt.Sprintf("%d items", len(result.Final)),
			Trace:    result.Trace,
		}
	}
	return nil
}
