package testsupport

import (
	"testing"

	"telecine/internal/config"
	"telecine/internal/jobstore"
)

// MustOpenLedger opens a jobstore.Store for tests and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *jobstore.Store {
	t.Helper()

	store, err := jobstore.Open(cfg)
	if err != nil {
		t.Fatalf("jobstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
