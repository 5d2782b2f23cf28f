// Package testutil provides shared helpers for package tests.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"queuectl/internal/infra/sqliteq"
)

// NewStore opens a fresh SQLite store in a per-test temp directory and
// closes it when the test ends.
func NewStore(t *testing.T) *sqliteq.Store {
	t.Helper()
	store, err := sqliteq.Open(filepath.Join(t.TempDir(), "queue.db"), 250*time.Millisecond)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close test store: %v", err)
		}
	})
	return store
}
