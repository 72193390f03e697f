package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows the
// encoding to change without colliding with old hashes.
const (
	DomainSnapshot = "latchlist/snapshot/v1"
	DomainItem     = "latchlist/item/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SnapshotHash identifies the full state of a list: options, ids, keys,
// latches and payloads. Two lists with the same hash are indistinguishable.
func SnapshotHash(s Snapshot) (string, error) {
	canonical, err := MarshalCanonical(s.Object())
	if err != nil {
		return "", fmt.Errorf("SnapshotHash: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}

// ItemHash identifies a single item record.
func ItemHash(r ItemRecord) (string, error) {
	canonical, err := MarshalCanonical(r.Object())
	if err != nil {
		return "", fmt.Errorf("ItemHash %q: %w", r.ID, err)
	}
	return hashWithDomain(DomainItem, canonical), nil
}
