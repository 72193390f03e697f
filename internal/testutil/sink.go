package testutil

import (
	"context"
	"sync"

	"github.com/roach88/latchlist/internal/latchlist"
)

// RecordingSink is a latchlist.RenumberSink that keeps every batch it
// receives. Err, when set, is returned from each call after recording.
type RecordingSink[T any] struct {
	mu      sync.Mutex
	batches [][]latchlist.Item[T]
	Err     error
}

// Renumbered records changed.
func (s *RecordingSink[T]) Renumbered(_ context.Context, changed []latchlist.Item[T]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := make([]latchlist.Item[T], len(changed))
	copy(batch, changed)
	s.batches = append(s.batches, batch)
	return s.Err
}

// Batches returns the recorded batches in arrival order.
func (s *RecordingSink[T]) Batches() [][]latchlist.Item[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]latchlist.Item[T], len(s.batches))
	copy(out, s.batches)
	return out
}

// Items returns every recorded item, flattened.
func (s *RecordingSink[T]) Items() []latchlist.Item[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []latchlist.Item[T]
	for _, b := range s.batches {
		out = append(out, b...)
	}
	return out
}

// Reset discards the recorded batches.
func (s *RecordingSink[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = nil
}
