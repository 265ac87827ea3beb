package testsupport

import (
	"testing"

	"gatewarden/internal/config"
	"gatewarden/internal/roster"
)

// MustOpenStore opens a roster.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *roster.Store {
	t.Helper()

	store, err := roster.Open(cfg)
	if err != nil {
		t.Fatalf("open roster store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close roster store: %v", err)
		}
	})
	return store
}
