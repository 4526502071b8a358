package testutil

import (
	"testing"

	"github.com/JOJ0/discodos-sub001/internal/database"
	"github.com/JOJ0/discodos-sub001/internal/discosync"
)

// NewTestHistory creates an in-memory SQLite history store with migrations applied.
// The store is closed when the test completes.
func NewTestHistory(t *testing.T) discosync.HistoryStore {
	t.Helper()

	h, err := database.NewSQLiteHistory(":memory:")
	if err != nil {
		t.Fatalf("failed to open history store: %v", err)
	}

	t.Cleanup(func() {
		h.Close()
	})

	return h
}
