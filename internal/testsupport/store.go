package testsupport

import (
	"context"
	"testing"

	"shelver/internal/config"
	"shelver/internal/ledger"
)

// MustOpenLedger opens the ledger configured by cfg and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustRegister registers a pending record and fails the test on error.
func MustRegister(t testing.TB, store *ledger.Store, kind ledger.SourceKind, id, path string) ledger.Key {
	t.Helper()

	key := ledger.Key{Kind: kind, SourceID: id}
	if _, err := store.Register(context.Background(), ledger.Entry{Key: key, FilePath: path, Title: id}); err != nil {
		t.Fatalf("store.Register: %v", err)
	}
	return key
}
