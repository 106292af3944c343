package testsupport

import (
	"context"
	"testing"

	"scholarcast/internal/config"
	"scholarcast/internal/store"
)

// MustOpenStore opens a store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedPaper inserts a paper record for tests using the provided store.
func SeedPaper(t testing.TB, st *store.Store, paper *store.Paper) *store.Paper {
	t.Helper()

	seeded, err := st.UpsertPaper(context.Background(), paper)
	if err != nil {
		t.Fatalf("store.UpsertPaper: %v", err)
	}
	return seeded
}
