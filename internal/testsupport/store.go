package testsupport

import (
	"context"
	"testing"

	"podcaster/internal/config"
	"podcaster/internal/queue"
)

// MustOpenStore opens the queue database under cfg's state dir; the store is
// closed when the test ends.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("open queue: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// NewItem enqueues text as a file-sourced item.
func NewItem(t testing.TB, store *queue.Store, text string) *queue.Item {
	t.Helper()
	item, err := store.NewItem(context.Background(), queue.SourceFile, "test.txt", text)
	if err != nil {
		t.Fatalf("store.NewItem: %v", err)
	}
	return item
}
