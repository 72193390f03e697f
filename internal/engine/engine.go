package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/latchlist/internal/ir"
	"github.com/roach88/latchlist/internal/latchlist"
	"github.com/roach88/latchlist/internal/orderkey"
	"github.com/roach88/latchlist/internal/store"
)

// Engine is the single writer of one stored list.
//
// Commands from any goroutine are queued and applied one at a time by the
// Run loop, which owns the in-memory list and persists every change before
// replying.
//
// Thread-safety model:
//   - Submit, Stop: safe from any goroutine
//   - Run: called exactly once, from one goroutine
type Engine struct {
	store  *store.Store
	name   string
	list   *latchlist.List[ir.IRObject]
	clock  Sequencer
	queue  *commandQueue
	ids    IDGenerator
	logger *slog.Logger
	sinks  []latchlist.RenumberSink[ir.IRObject]

	// pending collects the items renumbered by the command being applied.
	pending []Item

	started atomic.Bool
	done    chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock sets the sequencer that stamps commands. Default: NewClock().
func WithClock(c Sequencer) Option {
	return func(e *Engine) { e.clock = c }
}

// WithIDGenerator sets the generator for items inserted without an id.
// Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithSink adds a renumber sink notified after the store. Its failures are
// logged and do not fail the command.
func WithSink(s latchlist.RenumberSink[ir.IRObject]) Option {
	return func(e *Engine) { e.sinks = append(e.sinks, s) }
}

// New loads list name from st, creating it with opts if it does not exist
// (an existing list keeps its stored options). The loaded items are sorted,
// renumbered if needed and reconciled; any resulting change is written
// back before New returns.
func New(ctx context.Context, st *store.Store, name string, opts orderkey.Options, options ...Option) (*Engine, error) {
	e := &Engine{
		store:  st,
		name:   name,
		clock:  NewClock(),
		queue:  newCommandQueue(),
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}

	info, err := st.EnsureList(ctx, name, opts)
	if err != nil {
		return nil, err
	}
	loaded, err := st.ReadItems(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load list %q: %w", name, err)
	}

	recorder := latchlist.RenumberFunc[ir.IRObject](func(_ context.Context, changed []Item) error {
		e.pending = append(e.pending, changed...)
		return nil
	})
	sinks := append([]latchlist.RenumberSink[ir.IRObject]{recorder}, e.sinks...)

	e.list, err = latchlist.New(ctx, loaded, latchlist.Config[ir.IRObject]{
		Options: info.Options,
		Sink:    latchlist.Sinks(sinks...),
		Logger:  e.logger.With("list", name),
	})
	if err != nil {
		return nil, fmt.Errorf("load list %q: %w", name, err)
	}

	if err := e.persistLoad(ctx, loaded); err != nil {
		return nil, err
	}
	return e, nil
}

// Name returns the list name.
func (e *Engine) Name() string {
	return e.name
}

// Options returns the key options of the list.
func (e *Engine) Options() orderkey.Options {
	return e.list.Options()
}

// Submit queues cmd and waits for its result. A rejected command returns a
// *CommandError. Returns ErrStopped if the engine is not accepting work.
func (e *Engine) Submit(ctx context.Context, cmd Command) (Result, error) {
	r := &request{cmd: cmd, reply: make(chan response, 1)}
	if !e.queue.Enqueue(r) {
		return Result{}, ErrStopped
	}

	select {
	case resp := <-r.reply:
		return resp.result, resp.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-e.done:
		// Run answers every queued request before closing done.
		select {
		case resp := <-r.reply:
			return resp.result, resp.err
		default:
			return Result{}, ErrStopped
		}
	}
}

// Run applies queued commands until ctx is cancelled or Stop is called.
// After Stop, commands already queued are still applied. Returns nil on
// Stop and ctx.Err() on cancellation.
func (e *Engine) Run(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return fmt.Errorf("engine %q: Run called more than once", e.name)
	}
	defer e.shutdown()

	e.logger.Info("engine starting", "list", e.name, "items", e.list.Len())

	for {
		if r, ok := e.queue.TryDequeue(); ok {
			res, err := e.process(ctx, r.cmd)
			r.reply <- response{result: res, err: err}
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled", "list", e.name)
			return ctx.Err()
		case <-e.queue.Wait():
			// The signal channel is closed by Stop; a buffered signal may
			// also be left over from a request already taken.
			if e.queue.closedAndEmpty() {
				e.logger.Info("engine stopping: queue closed", "list", e.name)
				return nil
			}
		}
	}
}

// Stop closes the queue. Run returns once the queued commands are applied.
func (e *Engine) Stop() {
	e.queue.Close()
}

// Execute runs the loop just long enough to apply cmds in order, then
// stops the engine. It stops at the first failing command and returns the
// results gathered so far. Like Run, it can be used once per Engine.
func (e *Engine) Execute(ctx context.Context, cmds ...Command) ([]Result, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return e.Run(gctx) })

	results := make([]Result, 0, len(cmds))
	var cmdErr error
	for _, cmd := range cmds {
		res, err := e.Submit(gctx, cmd)
		if err != nil {
			cmdErr = err
			break
		}
		results = append(results, res)
	}

	e.Stop()
	if err := g.Wait(); err != nil && cmdErr == nil {
		cmdErr = err
	}
	return results, cmdErr
}

func (e *Engine) shutdown() {
	for _, r := range e.queue.Drain() {
		r.reply <- response{err: ErrStopped}
	}
	close(e.done)
}

// process applies one command. Called only from Run.
func (e *Engine) process(ctx context.Context, cmd Command) (Result, error) {
	seq := e.clock.Next()
	e.pending = nil

	res, err := e.apply(ctx, cmd)
	res.Seq = seq
	res.Op = cmd.Op

	if len(e.pending) > 0 {
		e.pending = e.latest(e.pending)
		res.Renumbered = e.pending
		if _, werr := e.store.WriteRenumber(ctx, e.name, e.pending); werr != nil && err == nil {
			err = fmt.Errorf("persist renumber: %w", werr)
		}
		e.pending = nil
	}
	res.OK = e.list.CheckOrder()

	if err != nil {
		e.logger.Warn("command failed",
			"list", e.name,
			"seq", seq,
			"op", cmd.Op,
			"id", cmd.ID,
			"error", err,
		)
		return res, &CommandError{Seq: seq, Op: cmd.Op, ID: cmd.ID, Err: err}
	}

	e.logger.Debug("command applied",
		"list", e.name,
		"seq", seq,
		"op", cmd.Op,
		"id", cmd.ID,
		"renumbered", len(res.Renumbered),
		"updated", len(res.Updated),
	)
	return res, nil
}

func (e *Engine) apply(ctx context.Context, cmd Command) (Result, error) {
	id := norm.NFC.String(cmd.ID)

	switch cmd.Op {
	case OpInsert, OpAppend:
		if id == "" {
			id = norm.NFC.String(e.ids.Generate())
		}
		pos := cmd.Position
		if cmd.Op == OpAppend {
			pos = e.list.Len()
		}
		p, err := e.list.Insert(ctx, id, pos, cmd.Lock, cmd.Payload.Clone())
		if err != nil {
			return Result{}, err
		}
		return e.persistItem(ctx, p)

	case OpMove:
		p, err := e.list.Move(ctx, id, cmd.Position)
		if err != nil {
			return Result{}, err
		}
		return e.persistItem(ctx, p)

	case OpDelete:
		p, ok := e.list.Delete(id)
		if !ok {
			return Result{}, &latchlist.Error{
				Code:     latchlist.ErrCodeNotFound,
				Message:  "item not found",
				ID:       id,
				Position: -1,
			}
		}
		res := Result{Item: &p}
		if _, err := e.store.DeleteItem(ctx, e.name, id); err != nil {
			return res, fmt.Errorf("persist delete: %w", err)
		}
		return res, nil

	case OpLock, OpUnlock:
		p, err := e.list.Lock(id, cmd.Op == OpLock)
		if err != nil {
			return Result{}, err
		}
		return e.persistItem(ctx, p)

	case OpReconcile:
		updated := e.list.Reconcile(ctx)
		res := Result{Updated: updated}
		if err := e.persistCurrent(ctx, updated); err != nil {
			return res, err
		}
		return res, nil

	case OpRenumber:
		// The recorder sink fills e.pending; process persists it.
		e.list.Renumber(ctx)
		return Result{}, nil

	case OpCheck:
		return Result{Violations: e.list.Violations()}, nil

	case OpList:
		return Result{Items: e.list.GetAll()}, nil

	default:
		return Result{}, fmt.Errorf("unknown operation %q", cmd.Op)
	}
}

func (e *Engine) persistItem(ctx context.Context, p Positioned) (Result, error) {
	res := Result{Item: &p}
	if err := e.store.UpsertItems(ctx, e.name, []Item{p.Item}); err != nil {
		return res, fmt.Errorf("persist item: %w", err)
	}
	return res, nil
}

// latest replaces renumbered items with their state once the command is
// done. A reconcile can move an item again after the renumber that recorded
// it. The result is deduplicated and in storage order.
func (e *Engine) latest(changed []Item) []Item {
	ids := make(map[string]bool, len(changed))
	for _, it := range changed {
		ids[it.ID] = true
	}
	out := make([]Item, 0, len(ids))
	for _, p := range e.list.GetAll() {
		if ids[p.Item.ID] {
			out = append(out, p.Item)
		}
	}
	return out
}

// persistCurrent writes the current state of every item in updated. An item
// may appear more than once; the list holds its latest state.
func (e *Engine) persistCurrent(ctx context.Context, updated []Positioned) error {
	seen := make(map[string]bool, len(updated))
	items := make([]Item, 0, len(updated))
	for _, u := range updated {
		if seen[u.Item.ID] {
			continue
		}
		seen[u.Item.ID] = true
		if cur, ok := e.list.Get(u.Item.ID); ok {
			items = append(items, cur.Item)
		}
	}
	if err := e.store.UpsertItems(ctx, e.name, items); err != nil {
		return fmt.Errorf("persist reconcile: %w", err)
	}
	return nil
}

// persistLoad writes back whatever loading changed: renumbered keys as a
// renumber event, and reconciled latches by replacing the stored items.
func (e *Engine) persistLoad(ctx context.Context, loaded []Item) error {
	if len(e.pending) > 0 {
		e.pending = e.latest(e.pending)
		if _, err := e.store.WriteRenumber(ctx, e.name, e.pending); err != nil {
			return fmt.Errorf("load list %q: persist renumber: %w", e.name, err)
		}
		e.pending = nil
	}

	current := e.list.GetAll()
	if sameState(loaded, current) {
		return nil
	}
	items := make([]Item, len(current))
	for i, p := range current {
		items[i] = p.Item
	}
	if err := e.store.ReplaceItems(ctx, e.name, items); err != nil {
		return fmt.Errorf("load list %q: persist reconcile: %w", e.name, err)
	}
	e.logger.Info("list repaired on load", "list", e.name, "items", len(items))
	return nil
}

func sameState(loaded []Item, current []Positioned) bool {
	if len(loaded) != len(current) {
		return false
	}
	for i, it := range loaded {
		c := current[i].Item
		if it.ID != c.ID || it.Order != c.Order || it.Latched != c.Latched {
			return false
		}
	}
	return true
}
