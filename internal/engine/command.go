package engine

import (
	"fmt"

	"github.com/roach88/latchlist/internal/ir"
	"github.com/roach88/latchlist/internal/latchlist"
)

// Item is the item type the engine manages.
type Item = latchlist.Item[ir.IRObject]

// Positioned is an item with its index.
type Positioned = latchlist.Positioned[ir.IRObject]

// Op names a list operation.
type Op string

const (
	OpInsert    Op = "insert"
	OpAppend    Op = "append"
	OpMove      Op = "move"
	OpDelete    Op = "delete"
	OpLock      Op = "lock"
	OpUnlock    Op = "unlock"
	OpReconcile Op = "reconcile"
	OpRenumber  Op = "renumber"
	OpCheck     Op = "check"
	OpList      Op = "list"
)

var validOps = map[Op]bool{
	OpInsert: true, OpAppend: true, OpMove: true, OpDelete: true,
	OpLock: true, OpUnlock: true, OpReconcile: true, OpRenumber: true,
	OpCheck: true, OpList: true,
}

// ParseOp validates an operation name.
func ParseOp(s string) (Op, error) {
	op := Op(s)
	if !validOps[op] {
		return "", fmt.Errorf("unknown operation %q", s)
	}
	return op, nil
}

// Command is one operation submitted to the engine.
//
// ID is required for move, delete, lock and unlock. For insert and append
// an empty ID is filled by the engine's IDGenerator. Position is used by
// insert and move; Lock and Payload by insert and append.
type Command struct {
	Op       Op          `json:"op"`
	ID       string      `json:"id,omitempty"`
	Position int         `json:"position,omitempty"`
	Lock     bool        `json:"lock,omitempty"`
	Payload  ir.IRObject `json:"payload,omitempty"`
}

// Result reports the effect of one command.
type Result struct {
	// Seq is the logical time the command was applied at.
	Seq int64 `json:"seq"`

	Op Op `json:"op"`

	// Item is the inserted, moved, deleted or (un)locked item.
	Item *Positioned `json:"item,omitempty"`

	// Updated lists the items a reconcile moved or re-latched.
	Updated []Positioned `json:"updated,omitempty"`

	// Renumbered lists the items whose key changed in a renumber, whether
	// explicit or triggered by a key overflow.
	Renumbered []Item `json:"renumbered,omitempty"`

	// Items is the full list, in order, for a list command.
	Items []Positioned `json:"items,omitempty"`

	// OK reports whether the list satisfies its invariants after the
	// command. Violations details them for a check command.
	OK         bool                  `json:"ok"`
	Violations []latchlist.Violation `json:"violations,omitempty"`
}
