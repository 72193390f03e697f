package ir

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ItemRecord is the float-free form of a list item used for storage,
// export and hashing. Order is the shortest decimal rendering of the key.
type ItemRecord struct {
	ID      string   `json:"id"`
	Order   string   `json:"order"`
	Latched int      `json:"latched"`
	Payload IRObject `json:"payload,omitempty"`
}

// OrderValue parses Order back into a key.
func (r ItemRecord) OrderValue() (float64, error) {
	f, err := strconv.ParseFloat(r.Order, 64)
	if err != nil {
		return 0, fmt.Errorf("item %q: invalid order %q: %w", r.ID, r.Order, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("item %q: order %q is not finite", r.ID, r.Order)
	}
	return f, nil
}

// Object returns the canonical object form of r. An empty payload is
// omitted.
func (r ItemRecord) Object() IRObject {
	obj := IRObject{
		"id":      IRString(r.ID),
		"order":   IRString(r.Order),
		"latched": IRInt(r.Latched),
	}
	if len(r.Payload) > 0 {
		obj["payload"] = r.Payload
	}
	return obj
}

// Snapshot is the portable form of a whole list.
type Snapshot struct {
	Version   string       `json:"version"`
	List      string       `json:"list"`
	Step      string       `json:"step"`
	Precision int          `json:"precision"`
	Items     []ItemRecord `json:"items"`
}

// Object returns the canonical object form of s.
func (s Snapshot) Object() IRObject {
	items := make(IRArray, len(s.Items))
	for i, r := range s.Items {
		items[i] = r.Object()
	}
	return IRObject{
		"version":   IRString(s.Version),
		"list":      IRString(s.List),
		"step":      IRString(s.Step),
		"precision": IRInt(s.Precision),
		"items":     items,
	}
}

// MarshalCanonical renders s as canonical JSON.
func (s Snapshot) MarshalCanonical() ([]byte, error) {
	return MarshalCanonical(s.Object())
}

// ParseSnapshot decodes a snapshot from standard JSON and checks that
// every record carries a finite order and a unique id.
func ParseSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot: %w", err)
	}
	if s.Version != "" && s.Version != FormatVersion {
		return Snapshot{}, fmt.Errorf("unsupported snapshot version %q (want %q)", s.Version, FormatVersion)
	}

	seen := make(map[string]struct{}, len(s.Items))
	for _, r := range s.Items {
		if r.ID == "" {
			return Snapshot{}, fmt.Errorf("snapshot item with empty id")
		}
		if _, dup := seen[r.ID]; dup {
			return Snapshot{}, fmt.Errorf("duplicate item id %q in snapshot", r.ID)
		}
		seen[r.ID] = struct{}{}
		if _, err := r.OrderValue(); err != nil {
			return Snapshot{}, err
		}
		if _, err := MarshalCanonical(r.Object()); err != nil {
			return Snapshot{}, fmt.Errorf("item %q: %w", r.ID, err)
		}
	}
	return s, nil
}
