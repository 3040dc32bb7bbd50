package testsupport

import (
	"context"
	"testing"

	"moviescene/internal/config"
	"moviescene/internal/store"
)

// MustOpenStore opens the config's template store for tests and registers
// cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	s, err := store.Open(context.Background(), cfg.Paths.StorePath, nil)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}
