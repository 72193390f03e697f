package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/latchlist/internal/ir"
	"github.com/roach88/latchlist/internal/latchlist"
	"github.com/roach88/latchlist/internal/orderkey"
)

// Item is the item type persisted by the store.
type Item = latchlist.Item[ir.IRObject]

// marshalPayload converts a payload to canonical JSON TEXT. A nil or empty
// payload is stored as "{}".
func marshalPayload(p ir.IRObject) (string, error) {
	if len(p) == 0 {
		return "{}", nil
	}
	data, err := ir.MarshalCanonical(p)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(data), nil
}

// unmarshalPayload parses stored TEXT. "{}" reads back as a nil payload.
func unmarshalPayload(data string) (ir.IRObject, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var obj ir.IRObject
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return obj, nil
}

// ToRecord converts a list item to its portable record.
func ToRecord(it Item) ir.ItemRecord {
	return ir.ItemRecord{
		ID:      it.ID,
		Order:   orderkey.Format(it.Order),
		Latched: it.Latched,
		Payload: it.Payload,
	}
}

// ToRecords converts items in order.
func ToRecords(items []Item) []ir.ItemRecord {
	out := make([]ir.ItemRecord, len(items))
	for i, it := range items {
		out[i] = ToRecord(it)
	}
	return out
}

// FromRecord converts a portable record back to a list item.
func FromRecord(r ir.ItemRecord) (Item, error) {
	order, err := r.OrderValue()
	if err != nil {
		return Item{}, err
	}
	latched := r.Latched
	if latched < 0 {
		latched = latchlist.Unlatched
	}
	return Item{ID: r.ID, Order: order, Latched: latched, Payload: r.Payload}, nil
}

// FromRecords converts records in order.
func FromRecords(records []ir.ItemRecord) ([]Item, error) {
	out := make([]Item, len(records))
	for i, r := range records {
		it, err := FromRecord(r)
		if err != nil {
			return nil, err
		}
		out[i] = it
	}
	return out, nil
}

// BuildSnapshot assembles the portable snapshot of a list.
func BuildSnapshot(name string, opts orderkey.Options, items []Item) ir.Snapshot {
	return ir.Snapshot{
		Version:   ir.FormatVersion,
		List:      name,
		Step:      orderkey.Format(opts.Step),
		Precision: opts.Precision,
		Items:     ToRecords(items),
	}
}

// batchHash identifies the set of items changed by one renumber.
func batchHash(list string, changed []Item) (string, error) {
	return ir.SnapshotHash(ir.Snapshot{
		Version: ir.FormatVersion,
		List:    list,
		Items:   ToRecords(changed),
	})
}
