package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/latchlist/internal/latchlist"
	"github.com/roach88/latchlist/internal/orderkey"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestList creates list "todo" with step 10 and precision 2.
func createTestList(t *testing.T, s *Store) ListInfo {
	t.Helper()
	info, err := s.EnsureList(context.Background(), "todo", orderkey.Options{Step: 10, Precision: 2})
	if err != nil {
		t.Fatalf("EnsureList() failed: %v", err)
	}
	return info
}

func item(id string, order float64, latched int) Item {
	return Item{ID: id, Order: order, Latched: latched}
}

func unlatched(id string, order float64) Item {
	return item(id, order, latchlist.Unlatched)
}
