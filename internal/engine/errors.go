package engine

import (
	"errors"
	"fmt"
)

// ErrStopped is returned by Submit once the engine is no longer running.
var ErrStopped = errors.New("engine stopped")

// CommandError wraps a failed command with the context it ran in.
// The cause is reachable through errors.As, so latchlist.CodeOf and the
// latchlist.Is* helpers work on a CommandError.
type CommandError struct {
	Seq int64
	Op  Op
	ID  string
	Err error
}

func (e *CommandError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s (seq=%d): %v", e.Op, e.ID, e.Seq, e.Err)
	}
	return fmt.Sprintf("%s (seq=%d): %v", e.Op, e.Seq, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
