package latchlist

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/roach88/latchlist/internal/orderkey"
)

// Config configures a List. The zero value is valid: default options,
// no renumber sink and slog.Default() for logging.
type Config[T any] struct {
	// Options controls key generation. A zero Options selects
	// orderkey.DefaultOptions; a zero Step alone selects the default step.
	Options orderkey.Options

	// Sink receives the items whose key changed during a renumber.
	Sink RenumberSink[T]

	// Logger receives sink failures and reconciliation diagnostics.
	Logger *slog.Logger
}

// List is an ordered list of items with fractional order keys.
type List[T any] struct {
	items  []Item[T]
	opts   orderkey.Options
	sink   RenumberSink[T]
	logger *slog.Logger
}

// New builds a List from an initial population that may be unsorted and
// carry stale latches. Items are sorted by Order, renumbered if their keys
// are not strictly increasing, and reconciled before New returns.
func New[T any](ctx context.Context, items []Item[T], cfg Config[T]) (*List[T], error) {
	opts := cfg.Options
	if opts == (orderkey.Options{}) {
		opts = orderkey.DefaultOptions()
	} else {
		opts = opts.WithDefaults()
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	l := &List[T]{
		items:  make([]Item[T], 0, len(items)),
		opts:   opts,
		sink:   cfg.Sink,
		logger: logger,
	}

	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, dup := seen[it.ID]; dup {
			return nil, newDuplicateError(it.ID)
		}
		seen[it.ID] = struct{}{}
		if it.Latched < 0 {
			it.Latched = Unlatched
		}
		l.items = append(l.items, it)
	}

	slices.SortStableFunc(l.items, func(a, b Item[T]) int {
		return cmp.Compare(a.Order, b.Order)
	})
	if !l.keysIncreasing() {
		l.Renumber(ctx)
	}
	l.Reconcile(ctx)

	return l, nil
}

// Options returns the key generation options in effect.
func (l *List[T]) Options() orderkey.Options {
	return l.opts
}

// Len returns the number of items.
func (l *List[T]) Len() int {
	return len(l.items)
}

// Insert adds a new item at position, which must be within [0, Len()].
//
// An unlatched item aimed at or before a run of latched items lands on the
// first unlatched slot at or after position. A latched item is placed at
// position exactly and latched there, displacing the current occupant.
func (l *List[T]) Insert(ctx context.Context, id string, position int, lock bool, payload T) (Positioned[T], error) {
	if position < 0 || position > len(l.items) {
		return Positioned[T]{}, newRangeError(id, position, len(l.items))
	}
	if l.indexOf(id) >= 0 {
		return Positioned[T]{}, newDuplicateError(id)
	}

	pos := l.freeSlot(position, lock)
	order, ok := l.orderAt(pos)

	item := Item[T]{ID: id, Order: order, Latched: Unlatched, Payload: payload}
	if lock {
		item.Latched = pos
	}
	l.items = slices.Insert(l.items, pos, item)

	if !ok {
		l.Renumber(ctx)
	}

	return Positioned[T]{Index: pos, Item: l.items[pos]}, nil
}

// Append inserts a new item at the end of the list.
func (l *List[T]) Append(ctx context.Context, id string, lock bool, payload T) (Positioned[T], error) {
	return l.Insert(ctx, id, len(l.items), lock, payload)
}

// Move relocates an existing item to position, which must be within
// [0, Len()-1]. Moving to the current index is a no-op. The slot is chosen
// among the remaining items with the same rule as Insert, using the
// item's own latch state.
func (l *List[T]) Move(ctx context.Context, id string, position int) (Positioned[T], error) {
	index := l.indexOf(id)
	if index < 0 {
		return Positioned[T]{}, newNotFoundError(id)
	}
	if position < 0 || position > len(l.items)-1 {
		return Positioned[T]{}, newRangeError(id, position, len(l.items)-1)
	}
	if index == position {
		return Positioned[T]{Index: index, Item: l.items[index]}, nil
	}

	to, err := l.moveIndex(ctx, index, position, true)
	if err != nil {
		return Positioned[T]{}, err
	}
	return Positioned[T]{Index: to, Item: l.items[to]}, nil
}

// Delete removes the item with id and returns it with its former index.
// Latched items further down are not reconciled.
func (l *List[T]) Delete(id string) (Positioned[T], bool) {
	index := l.indexOf(id)
	if index < 0 {
		return Positioned[T]{}, false
	}
	removed := l.items[index]
	l.items = slices.Delete(l.items, index, index+1)
	return Positioned[T]{Index: index, Item: removed}, true
}

// Lock latches the item to its current index, or releases it when lock is
// false.
func (l *List[T]) Lock(id string, lock bool) (Positioned[T], error) {
	index := l.indexOf(id)
	if index < 0 {
		return Positioned[T]{}, newNotFoundError(id)
	}
	if lock {
		l.items[index].Latched = index
	} else {
		l.items[index].Latched = Unlatched
	}
	return Positioned[T]{Index: index, Item: l.items[index]}, nil
}

// Get returns a copy of the item with id.
func (l *List[T]) Get(id string) (Positioned[T], bool) {
	index := l.indexOf(id)
	if index < 0 {
		return Positioned[T]{}, false
	}
	return Positioned[T]{Index: index, Item: l.items[index]}, true
}

// GetAll returns copies of all items in storage order.
func (l *List[T]) GetAll() []Positioned[T] {
	out := make([]Positioned[T], len(l.items))
	for i, it := range l.items {
		out[i] = Positioned[T]{Index: i, Item: it}
	}
	return out
}

// IDs returns the item ids in storage order.
func (l *List[T]) IDs() []string {
	ids := make([]string, len(l.items))
	for i, it := range l.items {
		ids[i] = it.ID
	}
	return ids
}

func (l *List[T]) indexOf(id string) int {
	return slices.IndexFunc(l.items, func(it Item[T]) bool { return it.ID == id })
}

// freeSlot applies slot skipping: latched inserts keep their slot, others
// advance past any latched items starting at wanted.
func (l *List[T]) freeSlot(wanted int, lock bool) int {
	return freeSlotIn(l.items, wanted, lock)
}

// orderAt computes the key for an item about to be placed at position.
// ok is false when the neighbours leave no room at the configured precision.
func (l *List[T]) orderAt(position int) (order float64, ok bool) {
	n := len(l.items)
	switch {
	case n == 0:
		return l.opts.Step, true
	case position == 0:
		first := l.items[0].Order
		order = orderkey.Midpoint(0, first, l.opts.Precision)
		if order <= 0 || order >= first {
			return math.NaN(), false
		}
		return order, true
	case position == n:
		order, ok = orderkey.NextStep(l.items[n-1].Order, l.opts.Step)
		if !ok {
			return math.NaN(), false
		}
		return order, true
	default:
		prev, next := l.items[position-1].Order, l.items[position].Order
		order = orderkey.Midpoint(prev, next, l.opts.Precision)
		if order <= prev || order >= next {
			return math.NaN(), false
		}
		return order, true
	}
}

// moveIndex takes the item at from out of the list and puts it back at to,
// recomputing its key. With skip set, to is adjusted by slot skipping.
func (l *List[T]) moveIndex(ctx context.Context, from, to int, skip bool) (int, error) {
	if from < 0 || from >= len(l.items) {
		return 0, fmt.Errorf("move source %d out of range [0, %d)", from, len(l.items))
	}
	item := l.items[from]
	rest := slices.Delete(slices.Clone(l.items), from, from+1)
	if skip {
		to = freeSlotIn(rest, to, item.IsLatched())
	}
	if to < 0 || to > len(rest) {
		return 0, fmt.Errorf("move target %d out of range [0, %d]", to, len(rest))
	}

	l.items = rest
	order, ok := l.orderAt(to)
	item.Order = order
	if item.IsLatched() {
		item.Latched = to
	}
	l.items = slices.Insert(l.items, to, item)

	if !ok {
		l.Renumber(ctx)
	}
	return to, nil
}

func freeSlotIn[T any](items []Item[T], wanted int, lock bool) int {
	if lock {
		return wanted
	}
	i := wanted
	for ; i < len(items); i++ {
		if !items[i].IsLatched() {
			return i
		}
	}
	return i
}

func (l *List[T]) keysIncreasing() bool {
	for i := 1; i < len(l.items); i++ {
		if !(l.items[i].Order > l.items[i-1].Order) {
			return false
		}
	}
	return len(l.items) == 0 || !math.IsNaN(l.items[0].Order)
}
