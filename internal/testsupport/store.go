package testsupport

import (
	"testing"

	"scenecode/internal/config"
	"scenecode/internal/store"
)

// MustOpenStore opens the ledger for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	ledger, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		ledger.Close()
	})
	return ledger
}
