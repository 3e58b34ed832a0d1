package metastore

import (
	"context"
	"path/filepath"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewWithPath(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewWithPath() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRecords() []Record {
	return []Record{
		{ID: "b2", URL: "b2", Prompt: "Add bangs", Title: "Curtain Bangs", Timestamp: 2000},
		{ID: "a1", URL: "a1", Prompt: "Platinum Bob - Sleek bob in platinum blonde", Title: "Platinum Bob", Timestamp: 1000},
	}
}

func TestStore_LoadAll_Empty(t *testing.T) {
	store := testStore(t)

	records, err := store.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("LoadAll() on fresh store = %v, want empty", records)
	}
}

func TestStore_SaveAllAndLoadAll(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	want := sampleRecords()

	if err := store.SaveAll(ctx, want); err != nil {
		t.Fatalf("SaveAll() error = %v", err)
	}

	got, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("LoadAll() returned %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestStore_SaveAll_Overwrites(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.SaveAll(ctx, sampleRecords()); err != nil {
		t.Fatalf("SaveAll() error = %v", err)
	}
	if err := store.SaveAll(ctx, sampleRecords()[:1]); err != nil {
		t.Fatalf("SaveAll() error = %v", err)
	}

	got, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("LoadAll() returned %d records, want 1", len(got))
	}
}

func TestStore_SaveAll_Nil(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.SaveAll(ctx, nil); err != nil {
		t.Fatalf("SaveAll(nil) error = %v", err)
	}

	records, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("LoadAll() = %v, want empty", records)
	}
}

func TestStore_Clear(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.SaveAll(ctx, sampleRecords()); err != nil {
		t.Fatalf("SaveAll() error = %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	records, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("LoadAll() after Clear() = %v, want empty", records)
	}

	// Clearing an already-empty store is fine.
	if err := store.Clear(ctx); err != nil {
		t.Errorf("Clear() on empty store error = %v", err)
	}
}

func TestStore_LoadAll_CorruptData(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.set(ctx, "history", []byte("{not json")); err != nil {
		t.Fatalf("set() error = %v", err)
	}

	records, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() with corrupt data error = %v, want nil", err)
	}
	if len(records) != 0 {
		t.Errorf("LoadAll() with corrupt data = %v, want empty", records)
	}
}

func TestStore_Usage(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	usage, err := store.LoadUsage(ctx)
	if err != nil {
		t.Fatalf("LoadUsage() error = %v", err)
	}
	if usage.SpentUSD != 0 || usage.Images != 0 {
		t.Errorf("LoadUsage() on fresh store = %+v, want zero", usage)
	}

	want := Usage{SpentUSD: 0.268, Images: 2}
	if err := store.SaveUsage(ctx, want); err != nil {
		t.Fatalf("SaveUsage() error = %v", err)
	}

	got, err := store.LoadUsage(ctx)
	if err != nil {
		t.Fatalf("LoadUsage() error = %v", err)
	}
	if got != want {
		t.Errorf("LoadUsage() = %+v, want %+v", got, want)
	}
}

func TestStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.db")
	ctx := context.Background()

	store, err := NewWithPath(path)
	if err != nil {
		t.Fatalf("NewWithPath() error = %v", err)
	}
	if err := store.SaveAll(ctx, sampleRecords()); err != nil {
		t.Fatalf("SaveAll() error = %v", err)
	}
	store.Close()

	reopened, err := NewWithPath(path)
	if err != nil {
		t.Fatalf("NewWithPath() reopen error = %v", err)
	}
	defer reopened.Close()

	records, err := reopened.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() after reopen error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("LoadAll() after reopen returned %d records, want 2", len(records))
	}
}
