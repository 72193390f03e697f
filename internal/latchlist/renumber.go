package latchlist

import (
	"context"
	"errors"
)

// RenumberSink receives the items whose key changed during a renumber.
//
// The list state is final when Renumbered is called. A returned error (or
// a panic) is logged by the list and never reaches the caller of the
// mutating operation.
type RenumberSink[T any] interface {
	Renumbered(ctx context.Context, changed []Item[T]) error
}

// RenumberFunc adapts a function to a RenumberSink.
type RenumberFunc[T any] func(ctx context.Context, changed []Item[T]) error

// Renumbered calls f.
func (f RenumberFunc[T]) Renumbered(ctx context.Context, changed []Item[T]) error {
	return f(ctx, changed)
}

// Sinks fans a renumber out to every sink in order. All sinks are called
// even if one fails; the errors are joined.
func Sinks[T any](sinks ...RenumberSink[T]) RenumberSink[T] {
	return RenumberFunc[T](func(ctx context.Context, changed []Item[T]) error {
		var errs []error
		for _, s := range sinks {
			if s == nil {
				continue
			}
			if err := s.Renumbered(ctx, changed); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// Renumber assigns (index+1)*Step to every item whose key differs from it
// and returns copies of the changed items. The sink is notified once the
// new keys are in place.
func (l *List[T]) Renumber(ctx context.Context) []Item[T] {
	var changed []Item[T]
	for i := range l.items {
		want := float64(i+1) * l.opts.Step
		if l.items[i].Order == want {
			continue
		}
		l.items[i].Order = want
		changed = append(changed, l.items[i])
	}

	if len(changed) == 0 {
		return nil
	}

	l.logger.Info("order keys renumbered",
		"changed", len(changed),
		"total", len(l.items),
		"step", l.opts.Step,
	)
	l.notify(ctx, changed)
	return changed
}

func (l *List[T]) notify(ctx context.Context, changed []Item[T]) {
	if l.sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("renumber sink panicked", "changed", len(changed), "panic", r)
		}
	}()

	// The sink gets its own copy so it cannot alias the returned slice.
	batch := make([]Item[T], len(changed))
	copy(batch, changed)
	if err := l.sink.Renumbered(ctx, batch); err != nil {
		l.logger.Error("renumber sink failed", "changed", len(changed), "error", err)
	}
}
