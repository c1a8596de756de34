package storage

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFileStoreLoadMissingFile(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "history.json"), nil)

	if got := store.Load(context.Background()); len(got) != 0 {
		t.Fatalf("load = %v, want empty history for a missing file", got)
	}
}

func TestFileStoreLoadCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewFileStore(path, nil)

	if got := store.Load(context.Background()); len(got) != 0 {
		t.Fatalf("load = %v, want empty history for a corrupt file", got)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "history.json"), nil)
	ctx := context.Background()

	history := []string{"https://a/1", "https://a/2"}
	store.Save(ctx, history, 100)

	if got := store.Load(ctx); !reflect.DeepEqual(got, history) {
		t.Fatalf("load = %v, want %v", got, history)
	}
}

func TestFileStoreTruncatesToNewest(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "history.json"), nil)
	ctx := context.Background()

	store.Save(ctx, []string{"x", "y", "z"}, 1)

	if got := store.Load(ctx); !reflect.DeepEqual(got, []string{"z"}) {
		t.Fatalf("load = %v, want only the newest entry", got)
	}
}

func TestFileStoreTruncationIsStable(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "history.json"), nil)
	ctx := context.Background()

	store.Save(ctx, []string{"a", "b", "c", "d"}, 2)
	first := store.Load(ctx)
	store.Save(ctx, first, 2)
	second := store.Load(ctx)

	if len(second) > 2 {
		t.Fatalf("history grew to %d entries past the cap", len(second))
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("resaving an already-truncated history changed it: %v -> %v", first, second)
	}
}

func TestFileStoreKeepsAllWithoutCap(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "history.json"), nil)
	ctx := context.Background()

	history := []string{"a", "b", "c"}
	store.Save(ctx, history, 0)

	if got := store.Load(ctx); !reflect.DeepEqual(got, history) {
		t.Fatalf("load = %v, want %v", got, history)
	}
}

func TestFileStoreSaveFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "no-such-dir", "history.json"), nil)
	ctx := context.Background()

	store.Save(ctx, []string{"a"}, 10)

	if got := store.Load(ctx); len(got) != 0 {
		t.Fatalf("load = %v after a failed save, want empty", got)
	}
}
