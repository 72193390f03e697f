// Package harness runs YAML scenarios against a live engine.
//
// # Scenario Format
//
//	name: pinned_reconcile
//	description: "Latched items return to their slots after a delete"
//	options: { step: 10, precision: 2 }
//	items:                        # optional initial population
//	  - { id: a, order: 10, latched: 0 }
//	steps:
//	  - op: append
//	    id: b
//	    lock: true
//	    expect: { index: 1 }
//	  - op: delete
//	    id: ghost
//	    expect: { error: NOT_FOUND }
//	  - op: reconcile
//	    expect: { updated: [], ids: [a, b] }
//	assertions:
//	  - { type: order_ids, ids: [a, b] }
//	  - { type: latched, id: b, slot: 1 }
//	  - { type: check_order }
//
// # Assertion Types
//
//   - order_ids: the final order of ids
//   - check_order: the invariant check of the final list (ok defaults to true)
//   - renumbered: ids (in order) or count of items renumbered during steps
//   - latched: the latch of one item; slot -1 means unlatched
//   - count: the final list length
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory SQLite store, a logical clock starting
// at 1 and sequential ids for items inserted without one. The trace and
// the final snapshot are rendered as canonical JSON and compared against
// golden files with goldie.
package harness
