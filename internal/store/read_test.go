package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/latchlist/internal/ir"
	"github.com/roach88/latchlist/internal/orderkey"
)

func TestReadList_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadList(context.Background(), "missing")
	if !errors.Is(err, ErrListNotFound) {
		t.Errorf("ReadList() error = %v, want ErrListNotFound", err)
	}
}

func TestLists_OrderedByName(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"work", "home", "Zed"} {
		if _, err := s.EnsureList(ctx, name, orderkey.DefaultOptions()); err != nil {
			t.Fatalf("EnsureList(%q) failed: %v", name, err)
		}
	}

	lists, err := s.Lists(ctx)
	if err != nil {
		t.Fatalf("Lists() failed: %v", err)
	}
	var names []string
	for _, l := range lists {
		names = append(names, l.Name)
	}
	if diff := cmp.Diff([]string{"Zed", "home", "work"}, names); diff != "" {
		t.Errorf("Lists() order mismatch (-want +got):\n%s", diff)
	}
}

func TestReadItems_Empty(t *testing.T) {
	s := createTestStore(t)
	createTestList(t, s)

	items, err := s.ReadItems(context.Background(), "todo")
	if err != nil {
		t.Fatalf("ReadItems() failed: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("ReadItems() = %#v, want empty non-nil slice", items)
	}
}

func TestReadItems_DeterministicOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestList(t, s)

	// Equal keys fall back to binary id order.
	err := s.UpsertItems(ctx, "todo", []Item{
		unlatched("b", 5),
		unlatched("a", 5),
		unlatched("c", 1.5),
		unlatched("B", 5),
	})
	if err != nil {
		t.Fatalf("UpsertItems() failed: %v", err)
	}

	items, err := s.ReadItems(ctx, "todo")
	if err != nil {
		t.Fatalf("ReadItems() failed: %v", err)
	}
	var ids []string
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	if diff := cmp.Diff([]string{"c", "B", "a", "b"}, ids); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestReadItems_IsolatedPerList(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestList(t, s)
	if _, err := s.EnsureList(ctx, "other", orderkey.DefaultOptions()); err != nil {
		t.Fatalf("EnsureList() failed: %v", err)
	}

	if err := s.UpsertItems(ctx, "todo", []Item{unlatched("a", 1)}); err != nil {
		t.Fatalf("UpsertItems() failed: %v", err)
	}
	if err := s.UpsertItems(ctx, "other", []Item{unlatched("a", 2)}); err != nil {
		t.Fatalf("UpsertItems() failed: %v", err)
	}

	items, err := s.ReadItems(ctx, "other")
	if err != nil {
		t.Fatalf("ReadItems() failed: %v", err)
	}
	if diff := cmp.Diff([]Item{unlatched("a", 2)}, items); diff != "" {
		t.Errorf("ReadItems(other) mismatch (-want +got):\n%s", diff)
	}
}

func TestReadRenumberEvents(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestList(t, s)

	events, err := s.ReadRenumberEvents(ctx, "todo")
	if err != nil {
		t.Fatalf("ReadRenumberEvents() failed: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %v", events)
	}

	for i := 0; i < 3; i++ {
		if _, err := s.WriteRenumber(ctx, "todo", []Item{unlatched("a", float64(10*(i+1)))}); err != nil {
			t.Fatalf("WriteRenumber() failed: %v", err)
		}
	}

	events, err = s.ReadRenumberEvents(ctx, "todo")
	if err != nil {
		t.Fatalf("ReadRenumberEvents() failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for i, ev := range events {
		if ev.Seq != int64(i+1) || ev.List != "todo" || ev.ItemCount != 1 {
			t.Errorf("event[%d] = %+v", i, ev)
		}
	}
}

func TestSnapshot(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestList(t, s)

	err := s.UpsertItems(ctx, "todo", []Item{
		item("a", 10, 0),
		{ID: "b", Order: 15.5, Latched: -1, Payload: ir.IRObject{"n": ir.IRInt(1)}},
	})
	if err != nil {
		t.Fatalf("UpsertItems() failed: %v", err)
	}

	snap, err := s.Snapshot(ctx, "todo")
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}
	want := ir.Snapshot{
		Version:   ir.FormatVersion,
		List:      "todo",
		Step:      "10",
		Precision: 2,
		Items: []ir.ItemRecord{
			{ID: "a", Order: "10", Latched: 0},
			{ID: "b", Order: "15.5", Latched: -1, Payload: ir.IRObject{"n": ir.IRInt(1)}},
		},
	}
	if diff := cmp.Diff(want, snap); diff != "" {
		t.Errorf("Snapshot() mismatch (-want +got):\n%s", diff)
	}

	if _, err := s.Snapshot(ctx, "missing"); !errors.Is(err, ErrListNotFound) {
		t.Errorf("Snapshot(missing) error = %v, want ErrListNotFound", err)
	}
}
