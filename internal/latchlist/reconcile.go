package latchlist

import (
	"context"
	"fmt"
	"math"
)

// Reconcile moves latched items back to their declared slot and returns
// every item that moved or had its Latched value rewritten.
//
// The pass works from a snapshot of the current id order:
//
//  1. Unlatched items and stale latches (slot >= Len) are skipped.
//  2. An item already at its slot stays there.
//  3. An item whose slot is held by an item latched to the same slot is
//     left for the sweep.
//  4. Any other latched item is moved to its slot.
//
// The earliest claimant in the current order wins a contested slot. A
// final sweep re-latches every latched item that is still off its slot
// to the index it ended up at. Running Reconcile twice in a row returns an
// empty slice the second time.
func (l *List[T]) Reconcile(ctx context.Context) []Positioned[T] {
	var updated []Positioned[T]

	n := len(l.items)
	snapshot := l.IDs()

	for _, id := range snapshot {
		index := l.indexOf(id)
		if index < 0 {
			continue
		}
		item := l.items[index]
		if !item.IsLatched() || item.Latched >= n {
			continue
		}

		target := item.Latched
		if target == index || l.items[target].Latched == target {
			continue
		}

		to, err := l.moveIndex(ctx, index, target, false)
		if err != nil {
			l.logger.Error("reconcile move failed", "id", id, "from", index, "to", target, "error", err)
			continue
		}
		updated = append(updated, Positioned[T]{Index: to, Item: l.items[to]})
	}

	for i := range l.items {
		it := &l.items[i]
		if it.IsLatched() && it.Latched != i {
			l.logger.Debug("latch reset", "id", it.ID, "declared", it.Latched, "index", i)
			it.Latched = i
			updated = append(updated, Positioned[T]{Index: i, Item: *it})
		}
	}

	return updated
}

// Violation describes one breach of the list invariants.
type Violation struct {
	Index  int    `json:"index"`
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

func (v Violation) String() string {
	return fmt.Sprintf("[%d] %s: %s", v.Index, v.ID, v.Reason)
}

// CheckOrder reports whether keys are strictly increasing and every latched
// item sits at its declared slot.
func (l *List[T]) CheckOrder() bool {
	prev := math.Inf(-1)
	for i, it := range l.items {
		if it.IsLatched() && it.Latched != i {
			return false
		}
		if !(it.Order > prev) {
			return false
		}
		prev = it.Order
	}
	return true
}

// Violations lists every invariant breach, in storage order.
func (l *List[T]) Violations() []Violation {
	var out []Violation
	prev := math.Inf(-1)
	for i, it := range l.items {
		if it.IsLatched() && it.Latched != i {
			out = append(out, Violation{
				Index:  i,
				ID:     it.ID,
				Reason: fmt.Sprintf("latched to slot %d", it.Latched),
			})
		}
		if !(it.Order > prev) {
			out = append(out, Violation{
				Index:  i,
				ID:     it.ID,
				Reason: fmt.Sprintf("order %v not greater than previous %v", it.Order, prev),
			})
		}
		prev = it.Order
	}
	return out
}
