package store

import (
	"context"

	"github.com/roach88/latchlist/internal/ir"
	"github.com/roach88/latchlist/internal/latchlist"
)

// Sink returns a renumber sink that persists changed keys of list through
// WriteRenumber.
func (s *Store) Sink(list string) latchlist.RenumberSink[ir.IRObject] {
	return latchlist.RenumberFunc[ir.IRObject](func(ctx context.Context, changed []Item) error {
		_, err := s.WriteRenumber(ctx, list, changed)
		return err
	})
}
