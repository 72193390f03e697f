// Package engine serializes access to a stored list.
//
// A List is single-writer and unsynchronized. The engine owns one list and
// its store and applies commands in a single goroutine:
//
//  1. Submit enqueues a command on an unbounded FIFO queue and waits.
//  2. Run dequeues one command at a time and stamps it with the next
//     logical sequence number.
//  3. The command is applied to the list; the touched items, any
//     renumbered items and the renumber event are written to SQLite.
//  4. The Result (or a *CommandError) is handed back to the submitter.
//
// Sequence numbers come from a logical clock, never wall time, so a
// command log replays identically.
package engine
