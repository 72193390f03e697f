package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/latchlist/internal/orderkey"
)

// EnsureList creates the named list with opts if it does not exist and
// returns the stored definition. An existing list keeps its options.
func (s *Store) EnsureList(ctx context.Context, name string, opts orderkey.Options) (ListInfo, error) {
	if name == "" {
		return ListInfo{}, fmt.Errorf("ensure list: empty name")
	}
	if err := opts.Validate(); err != nil {
		return ListInfo{}, fmt.Errorf("ensure list %q: %w", name, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lists (name, step, precision)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, name, opts.Step, opts.Precision)
	if err != nil {
		return ListInfo{}, fmt.Errorf("ensure list %q: %w", name, err)
	}

	return s.ReadList(ctx, name)
}

// SetOptions overwrites the key options of an existing list.
func (s *Store) SetOptions(ctx context.Context, name string, opts orderkey.Options) error {
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("set options %q: %w", name, err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE lists SET step = ?, precision = ? WHERE name = ?
	`, opts.Step, opts.Precision, name)
	if err != nil {
		return fmt.Errorf("set options %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set options %q: rows affected: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("set options %q: %w", name, ErrListNotFound)
	}
	return nil
}

// UpsertItems writes items into list in one transaction. Existing rows are
// overwritten.
func (s *Store) UpsertItems(ctx context.Context, list string, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert items: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := upsertItems(ctx, tx, list, items); err != nil {
		return fmt.Errorf("upsert items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("upsert items: commit: %w", err)
	}
	return nil
}

// DeleteItem removes one item. deleted is false if it did not exist.
func (s *Store) DeleteItem(ctx context.Context, list, id string) (deleted bool, err error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE list = ? AND id = ?`, list, id)
	if err != nil {
		return false, fmt.Errorf("delete item %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete item %q: rows affected: %w", id, err)
	}
	return n > 0, nil
}

// ReplaceItems replaces the full contents of list in one transaction.
func (s *Store) ReplaceItems(ctx context.Context, list string, items []Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace items: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE list = ?`, list); err != nil {
		return fmt.Errorf("replace items: clear: %w", err)
	}
	if err := upsertItems(ctx, tx, list, items); err != nil {
		return fmt.Errorf("replace items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace items: commit: %w", err)
	}
	return nil
}

// WriteRenumber persists the items changed by a renumber and appends a
// renumber event, atomically. The event sequence is per list and starts
// at 1.
func (s *Store) WriteRenumber(ctx context.Context, list string, changed []Item) (RenumberEvent, error) {
	hash, err := batchHash(list, changed)
	if err != nil {
		return RenumberEvent{}, fmt.Errorf("write renumber: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RenumberEvent{}, fmt.Errorf("write renumber: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := upsertItems(ctx, tx, list, changed); err != nil {
		return RenumberEvent{}, fmt.Errorf("write renumber: %w", err)
	}

	var seq int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) + 1 FROM renumber_events WHERE list = ?
	`, list).Scan(&seq)
	if err != nil {
		return RenumberEvent{}, fmt.Errorf("write renumber: next seq: %w", err)
	}

	ev := RenumberEvent{List: list, Seq: seq, ItemCount: len(changed), SnapshotHash: hash}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO renumber_events (list, seq, item_count, snapshot_hash)
		VALUES (?, ?, ?, ?)
	`, ev.List, ev.Seq, ev.ItemCount, ev.SnapshotHash)
	if err != nil {
		return RenumberEvent{}, fmt.Errorf("write renumber: insert event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return RenumberEvent{}, fmt.Errorf("write renumber: commit: %w", err)
	}
	return ev, nil
}

func upsertItems(ctx context.Context, tx *sql.Tx, list string, items []Item) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO items (list, id, ord, latched, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(list, id) DO UPDATE SET
			ord = excluded.ord,
			latched = excluded.latched,
			payload = excluded.payload
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		payload, err := marshalPayload(it.Payload)
		if err != nil {
			return fmt.Errorf("item %q: %w", it.ID, err)
		}
		latched := it.Latched
		if latched < 0 {
			latched = -1
		}
		if _, err := stmt.ExecContext(ctx, list, it.ID, it.Order, latched, payload); err != nil {
			return fmt.Errorf("item %q: %w", it.ID, err)
		}
	}
	return nil
}
