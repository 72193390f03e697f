// Package store provides SQLite-backed durable storage for latchlist lists.
//
// Tables:
//   - lists: one row per named list with its key options
//   - items: one row per item (key, latch, canonical JSON payload)
//   - renumber_events: an append-only log of renumbers per list
//
// Reads return items ordered by key, ties broken by id, so results are
// deterministic. The store also serves as a renumber sink: Sink(list)
// persists the changed keys and logs the event in one transaction.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package store
