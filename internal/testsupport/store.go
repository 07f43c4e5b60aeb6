package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"seen/internal/config"
	"seen/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewUpload creates a job for a small placeholder upload named name.
func NewUpload(t testing.TB, store *queue.Store, cfg *config.Config, name string) *queue.Item {
	t.Helper()

	source := filepath.Join(BaseDir(cfg), "uploads", name)
	WriteFile(t, source, 1024)
	item, err := store.NewUpload(context.Background(), queue.Upload{
		SourceName: name,
		SourcePath: source,
		ClientAddr: "127.0.0.1",
		SampleHz:   cfg.Sampling.SampleHz,
	})
	if err != nil {
		t.Fatalf("store.NewUpload: %v", err)
	}
	return item
}
