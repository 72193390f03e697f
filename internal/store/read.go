package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/latchlist/internal/ir"
	"github.com/roach88/latchlist/internal/orderkey"
)

// ListInfo is the stored definition of a list.
type ListInfo struct {
	Name    string           `json:"name"`
	Options orderkey.Options `json:"options"`
}

// RenumberEvent records one renumber of a list.
type RenumberEvent struct {
	List         string `json:"list"`
	Seq          int64  `json:"seq"`
	ItemCount    int    `json:"item_count"`
	SnapshotHash string `json:"snapshot_hash"`
}

// ReadList returns the definition of the named list, or an error wrapping
// ErrListNotFound.
func (s *Store) ReadList(ctx context.Context, name string) (ListInfo, error) {
	info := ListInfo{Name: name}
	err := s.db.QueryRowContext(ctx, `
		SELECT step, precision FROM lists WHERE name = ?
	`, name).Scan(&info.Options.Step, &info.Options.Precision)
	if errors.Is(err, sql.ErrNoRows) {
		return ListInfo{}, fmt.Errorf("read list %q: %w", name, ErrListNotFound)
	}
	if err != nil {
		return ListInfo{}, fmt.Errorf("read list %q: %w", name, err)
	}
	return info, nil
}

// Lists returns every stored list ordered by name.
func (s *Store) Lists(ctx context.Context) ([]ListInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, step, precision FROM lists ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query lists: %w", err)
	}
	defer rows.Close()

	lists := []ListInfo{}
	for rows.Next() {
		var info ListInfo
		if err := rows.Scan(&info.Name, &info.Options.Step, &info.Options.Precision); err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		lists = append(lists, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lists: %w", err)
	}
	return lists, nil
}

// ReadItems returns the items of list ordered by key, ties broken by id.
// Returns an empty slice (not nil) for an empty list.
func (s *Store) ReadItems(ctx context.Context, list string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ord, latched, payload
		FROM items
		WHERE list = ?
		ORDER BY ord ASC, id COLLATE BINARY ASC
	`, list)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var (
			it      Item
			payload string
		)
		if err := rows.Scan(&it.ID, &it.Order, &it.Latched, &payload); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it.Payload, err = unmarshalPayload(payload)
		if err != nil {
			return nil, fmt.Errorf("item %q: %w", it.ID, err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// ReadRenumberEvents returns the renumber log of list in sequence order.
func (s *Store) ReadRenumberEvents(ctx context.Context, list string) ([]RenumberEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT list, seq, item_count, snapshot_hash
		FROM renumber_events
		WHERE list = ?
		ORDER BY seq ASC
	`, list)
	if err != nil {
		return nil, fmt.Errorf("query renumber events: %w", err)
	}
	defer rows.Close()

	events := []RenumberEvent{}
	for rows.Next() {
		var ev RenumberEvent
		if err := rows.Scan(&ev.List, &ev.Seq, &ev.ItemCount, &ev.SnapshotHash); err != nil {
			return nil, fmt.Errorf("scan renumber event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate renumber events: %w", err)
	}
	return events, nil
}

// Snapshot reads the full portable state of list.
func (s *Store) Snapshot(ctx context.Context, list string) (ir.Snapshot, error) {
	info, err := s.ReadList(ctx, list)
	if err != nil {
		return ir.Snapshot{}, err
	}
	items, err := s.ReadItems(ctx, list)
	if err != nil {
		return ir.Snapshot{}, err
	}
	return BuildSnapshot(info.Name, info.Options, items), nil
}
