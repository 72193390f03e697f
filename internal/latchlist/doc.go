// Package latchlist implements an ordered list with fractional order keys
// and latched (pinned) slots.
//
// Every item carries a float64 Order. Storage order always equals key order
// (I1). Inserting or moving an item only rewrites that item's key: the new
// key is the midpoint of its neighbours at the configured precision (see
// package orderkey). When no midpoint fits, every key is renumbered to
// (index+1)*Step and the changed items are reported to a RenumberSink.
//
// An item may be latched to a slot. Latched items are never overtaken by
// unlatched inserts: an unlatched item aimed inside a run of latched items
// lands after the run. Structural changes can still shift latched items off
// their slot (I2); Reconcile moves them back and settles conflicts.
//
// # Conflict policy
//
// When two latched items claim the same slot, the one processed first (in
// current list order) keeps it. The other stays where it ended up and its
// Latched value is rewritten to that index.
//
// # Concurrency
//
// A List is owned by a single writer and is not safe for concurrent use.
// Package engine provides a single-writer loop for shared access.
package latchlist
