package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/latchlist/internal/engine"
	"github.com/roach88/latchlist/internal/ir"
	"github.com/roach88/latchlist/internal/latchlist"
	"github.com/roach88/latchlist/internal/orderkey"
	"github.com/roach88/latchlist/internal/store"
	"github.com/roach88/latchlist/internal/testutil"
)

// Harness runs one scenario against a live engine.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	list   string
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with a deterministic
// clock and id generator, so the same scenario always yields the same
// trace:
//
//  1. Seed the initial items and load them through the engine
//  2. Submit each step and check its expectation
//  3. Collect the final list, its invariant check and snapshot
//  4. Evaluate the assertions
//
// A step that fails with a list error is recorded in the trace; any other
// failure aborts the run and is returned.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	list := scenario.Name
	opts := scenario.KeyOptions()

	if err := seed(ctx, st, list, opts, scenario.Items); err != nil {
		return nil, fmt.Errorf("failed to seed items: %w", err)
	}

	eng, err := engine.New(ctx, st, list, opts,
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithClock(testutil.NewDeterministicClock()),
		engine.WithIDGenerator(testutil.NewSequenceIDs(scenario.IDPrefix)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load list: %w", err)
	}

	h := &Harness{store: st, engine: eng, list: list}
	result := NewResult()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return eng.Run(gctx) })

	runErr := h.executeSteps(gctx, scenario.Steps, result)
	if runErr == nil {
		runErr = h.collectFinal(gctx, result)
	}
	eng.Stop()
	if err := g.Wait(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return nil, runErr
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func seed(ctx context.Context, st *store.Store, list string, opts orderkey.Options, specs []ItemSpec) error {
	if _, err := st.EnsureList(ctx, list, opts); err != nil {
		return err
	}
	if len(specs) == 0 {
		return nil
	}

	items := make([]store.Item, len(specs))
	for i, spec := range specs {
		payload, err := toPayload(spec.Payload)
		if err != nil {
			return fmt.Errorf("items[%d]: %w", i, err)
		}
		latched := latchlist.Unlatched
		if spec.Latched != nil {
			latched = *spec.Latched
		}
		items[i] = store.Item{ID: spec.ID, Order: spec.Order, Latched: latched, Payload: payload}
	}
	return st.UpsertItems(ctx, list, items)
}

func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) error {
	for i, step := range steps {
		payload, err := toPayload(step.Payload)
		if err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}

		res, err := h.engine.Submit(ctx, engine.Command{
			Op:       engine.Op(step.Op),
			ID:       step.ID,
			Position: step.Position,
			Lock:     step.Lock,
			Payload:  payload,
		})

		ev := TraceEvent{Seq: res.Seq, Op: step.Op, ID: step.ID}
		if err != nil {
			var cmdErr *engine.CommandError
			code := latchlist.CodeOf(err)
			if !errors.As(err, &cmdErr) || code == "" {
				return fmt.Errorf("steps[%d] %s: %w", i, step.Op, err)
			}
			ev.Seq = cmdErr.Seq
			ev.Error = string(code)
		}
		if res.Item != nil {
			index := res.Item.Index
			ev.ID = res.Item.Item.ID
			ev.Index = &index
			ev.Order = orderkey.Format(res.Item.Item.Order)
		}
		for _, u := range res.Updated {
			ev.Updated = append(ev.Updated, u.Item.ID)
		}
		for _, r := range res.Renumbered {
			ev.Renumbered = append(ev.Renumbered, r.ID)
		}
		result.AddTrace(ev)

		if err := h.checkExpect(ctx, i, step, ev, res, err, result); err != nil {
			return err
		}
	}
	return nil
}

// checkExpect records every mismatch between a step's outcome and its
// expectation. It returns an error only if the store cannot be read.
func (h *Harness) checkExpect(ctx context.Context, index int, step Step, ev TraceEvent, res engine.Result, stepErr error, result *Result) error {
	prefix := fmt.Sprintf("steps[%d] %s", index, step.Op)
	if step.ID != "" {
		prefix += " " + step.ID
	}

	exp := step.Expect
	if exp == nil || exp.Error == "" {
		if stepErr != nil {
			result.AddError(fmt.Sprintf("%s: unexpected error: %v", prefix, stepErr))
			return nil
		}
	} else {
		if stepErr == nil {
			result.AddError(fmt.Sprintf("%s: expected error %s, got success", prefix, exp.Error))
		} else if ev.Error != exp.Error {
			result.AddError(fmt.Sprintf("%s: expected error %s, got %s", prefix, exp.Error, ev.Error))
		}
	}
	if exp == nil {
		return nil
	}

	if exp.Index != nil {
		switch {
		case ev.Index == nil:
			result.AddError(fmt.Sprintf("%s: expected index %d, got no item", prefix, *exp.Index))
		case *ev.Index != *exp.Index:
			result.AddError(fmt.Sprintf("%s: expected index %d, got %d", prefix, *exp.Index, *ev.Index))
		}
	}

	if exp.Updated != nil && !slices.Equal(exp.Updated, ev.Updated) {
		result.AddError(fmt.Sprintf("%s: expected updated %v, got %v", prefix, exp.Updated, ev.Updated))
	}

	if exp.Renumbered != nil && *exp.Renumbered != len(res.Renumbered) {
		result.AddError(fmt.Sprintf("%s: expected %d renumbered, got %d", prefix, *exp.Renumbered, len(res.Renumbered)))
	}

	if exp.IDs != nil {
		items, err := h.store.ReadItems(ctx, h.list)
		if err != nil {
			return fmt.Errorf("%s: read items: %w", prefix, err)
		}
		got := make([]string, len(items))
		for i, it := range items {
			got[i] = it.ID
		}
		if !slices.Equal(exp.IDs, got) {
			result.AddError(fmt.Sprintf("%s: expected ids %v, got %v", prefix, exp.IDs, got))
		}
	}
	return nil
}

// collectFinal reads the final list through the engine and the store.
func (h *Harness) collectFinal(ctx context.Context, result *Result) error {
	check, err := h.engine.Submit(ctx, engine.Command{Op: engine.OpCheck})
	if err != nil {
		return fmt.Errorf("final check: %w", err)
	}
	result.OK = check.OK
	result.Violations = check.Violations

	all, err := h.engine.Submit(ctx, engine.Command{Op: engine.OpList})
	if err != nil {
		return fmt.Errorf("final list: %w", err)
	}
	result.Final = all.Items

	snap, err := h.store.Snapshot(ctx, h.list)
	if err != nil {
		return fmt.Errorf("final snapshot: %w", err)
	}
	result.Snapshot = snap
	return nil
}

// toPayload converts a YAML mapping into a payload object.
func toPayload(m map[string]any) (ir.IRObject, error) {
	if len(m) == 0 {
		return nil, nil
	}
	v, err := ir.FromGo(m)
	if err != nil {
		return nil, fmt.Errorf("payload: %w", err)
	}
	obj, ok := v.(ir.IRObject)
	if !ok {
		return nil, fmt.Errorf("payload: expected object, got %T", v)
	}
	return obj, nil
}
