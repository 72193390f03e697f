package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/latchlist/internal/ir"
	"github.com/roach88/latchlist/internal/orderkey"
)

func TestEnsureList_CreatesOnce(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.EnsureList(ctx, "todo", orderkey.Options{Step: 10, Precision: 2})
	if err != nil {
		t.Fatalf("EnsureList() failed: %v", err)
	}
	second, err := s.EnsureList(ctx, "todo", orderkey.Options{Step: 500, Precision: 4})
	if err != nil {
		t.Fatalf("second EnsureList() failed: %v", err)
	}

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("existing list options changed (-first +second):\n%s", diff)
	}
	if second.Options.Step != 10 || second.Options.Precision != 2 {
		t.Errorf("options = %+v, want step 10 precision 2", second.Options)
	}
}

func TestEnsureList_Validates(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.EnsureList(ctx, "", orderkey.DefaultOptions()); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := s.EnsureList(ctx, "bad", orderkey.Options{Step: -1, Precision: 2}); err == nil {
		t.Error("expected error for negative step")
	}
}

func TestSetOptions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestList(t, s)

	if err := s.SetOptions(ctx, "todo", orderkey.Options{Step: 100, Precision: 3}); err != nil {
		t.Fatalf("SetOptions() failed: %v", err)
	}
	info, err := s.ReadList(ctx, "todo")
	if err != nil {
		t.Fatalf("ReadList() failed: %v", err)
	}
	if info.Options.Step != 100 || info.Options.Precision != 3 {
		t.Errorf("options = %+v, want step 100 precision 3", info.Options)
	}

	err = s.SetOptions(ctx, "missing", orderkey.DefaultOptions())
	if !errors.Is(err, ErrListNotFound) {
		t.Errorf("SetOptions(missing) error = %v, want ErrListNotFound", err)
	}
}

func TestUpsertItems_InsertAndOverwrite(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestList(t, s)

	items := []Item{
		unlatched("b", 20),
		item("a", 10, 0),
		{ID: "c", Order: 30, Latched: -1, Payload: ir.IRObject{"title": ir.IRString("milk")}},
	}
	if err := s.UpsertItems(ctx, "todo", items); err != nil {
		t.Fatalf("UpsertItems() failed: %v", err)
	}

	if err := s.UpsertItems(ctx, "todo", []Item{unlatched("b", 25.5)}); err != nil {
		t.Fatalf("second UpsertItems() failed: %v", err)
	}

	got, err := s.ReadItems(ctx, "todo")
	if err != nil {
		t.Fatalf("ReadItems() failed: %v", err)
	}
	want := []Item{
		item("a", 10, 0),
		unlatched("b", 25.5),
		{ID: "c", Order: 30, Latched: -1, Payload: ir.IRObject{"title": ir.IRString("milk")}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadItems() mismatch (-want +got):\n%s", diff)
	}
}

func TestUpsertItems_UnknownList(t *testing.T) {
	s := createTestStore(t)

	err := s.UpsertItems(context.Background(), "missing", []Item{unlatched("a", 1)})
	if err == nil {
		t.Error("expected foreign key error for unknown list")
	}
}

func TestUpsertItems_RejectsNullPayload(t *testing.T) {
	s := createTestStore(t)
	createTestList(t, s)

	err := s.UpsertItems(context.Background(), "todo", []Item{
		{ID: "a", Order: 1, Latched: -1, Payload: ir.IRObject{"x": ir.IRNull{}}},
	})
	if err == nil {
		t.Error("expected error for null in payload")
	}
}

func TestDeleteItem(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestList(t, s)

	if err := s.UpsertItems(ctx, "todo", []Item{unlatched("a", 10), unlatched("b", 20)}); err != nil {
		t.Fatalf("UpsertItems() failed: %v", err)
	}

	deleted, err := s.DeleteItem(ctx, "todo", "a")
	if err != nil || !deleted {
		t.Fatalf("DeleteItem(a) = %v, %v; want true, nil", deleted, err)
	}
	deleted, err = s.DeleteItem(ctx, "todo", "a")
	if err != nil || deleted {
		t.Fatalf("second DeleteItem(a) = %v, %v; want false, nil", deleted, err)
	}

	got, err := s.ReadItems(ctx, "todo")
	if err != nil {
		t.Fatalf("ReadItems() failed: %v", err)
	}
	if diff := cmp.Diff([]Item{unlatched("b", 20)}, got); diff != "" {
		t.Errorf("ReadItems() mismatch (-want +got):\n%s", diff)
	}
}

func TestReplaceItems(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestList(t, s)

	if err := s.UpsertItems(ctx, "todo", []Item{unlatched("a", 10), unlatched("b", 20)}); err != nil {
		t.Fatalf("UpsertItems() failed: %v", err)
	}
	if err := s.ReplaceItems(ctx, "todo", []Item{unlatched("z", 5)}); err != nil {
		t.Fatalf("ReplaceItems() failed: %v", err)
	}

	got, err := s.ReadItems(ctx, "todo")
	if err != nil {
		t.Fatalf("ReadItems() failed: %v", err)
	}
	if diff := cmp.Diff([]Item{unlatched("z", 5)}, got); diff != "" {
		t.Errorf("ReadItems() mismatch (-want +got):\n%s", diff)
	}

	if err := s.ReplaceItems(ctx, "todo", nil); err != nil {
		t.Fatalf("ReplaceItems(nil) failed: %v", err)
	}
	got, err = s.ReadItems(ctx, "todo")
	if err != nil {
		t.Fatalf("ReadItems() failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty list, got %v", got)
	}
}

func TestReplaceItems_RollsBackOnError(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestList(t, s)

	if err := s.UpsertItems(ctx, "todo", []Item{unlatched("a", 10)}); err != nil {
		t.Fatalf("UpsertItems() failed: %v", err)
	}
	err := s.ReplaceItems(ctx, "todo", []Item{
		unlatched("z", 5),
		{ID: "bad", Order: 6, Latched: -1, Payload: ir.IRObject{"x": ir.IRNull{}}},
	})
	if err == nil {
		t.Fatal("expected ReplaceItems() to fail")
	}

	got, err := s.ReadItems(ctx, "todo")
	if err != nil {
		t.Fatalf("ReadItems() failed: %v", err)
	}
	if diff := cmp.Diff([]Item{unlatched("a", 10)}, got); diff != "" {
		t.Errorf("contents changed after failed replace (-want +got):\n%s", diff)
	}
}

func TestWriteRenumber(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestList(t, s)

	if err := s.UpsertItems(ctx, "todo", []Item{unlatched("a", 1), unlatched("b", 1.01)}); err != nil {
		t.Fatalf("UpsertItems() failed: %v", err)
	}

	// "n" is not stored yet: the renumber carries it in.
	changed := []Item{unlatched("a", 10), unlatched("n", 20), unlatched("b", 30)}
	ev, err := s.WriteRenumber(ctx, "todo", changed)
	if err != nil {
		t.Fatalf("WriteRenumber() failed: %v", err)
	}
	if ev.Seq != 1 || ev.ItemCount != 3 || len(ev.SnapshotHash) != 64 {
		t.Errorf("event = %+v, want seq 1, 3 items, 64-char hash", ev)
	}

	ev2, err := s.WriteRenumber(ctx, "todo", changed[:1])
	if err != nil {
		t.Fatalf("second WriteRenumber() failed: %v", err)
	}
	if ev2.Seq != 2 {
		t.Errorf("second event seq = %d, want 2", ev2.Seq)
	}
	if ev2.SnapshotHash == ev.SnapshotHash {
		t.Error("different batches must hash differently")
	}

	got, err := s.ReadItems(ctx, "todo")
	if err != nil {
		t.Fatalf("ReadItems() failed: %v", err)
	}
	if diff := cmp.Diff(changed, got); diff != "" {
		t.Errorf("ReadItems() mismatch (-want +got):\n%s", diff)
	}
}
