// Package testutil provides shared test helpers for setting up vault stores.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/ryanahq/ryana/internal/models"
	"github.com/ryanahq/ryana/internal/store"
)

// TestStore creates a temporary SQLite-backed store that is automatically
// cleaned up.
func TestStore(t *testing.T) *store.Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "ryana-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	st, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// MustAddSnippet inserts a snippet and returns its id, failing the test on
// error.
func MustAddSnippet(t *testing.T, st *store.Store, sn models.Snippet) string {
	t.Helper()
	if sn.Code == "" {
		sn.Code = "x := 1"
	}
	id, err := st.AddSnippet(context.Background(), sn)
	if err != nil {
		t.Fatalf("AddSnippet: %v", err)
	}
	return id
}

// MustAddSubject inserts a subject and returns its id, failing the test on
// error.
func MustAddSubject(t *testing.T, st *store.Store, sub models.Subject) string {
	t.Helper()
	id, err := st.AddSubject(context.Background(), sub)
	if err != nil {
		t.Fatalf("AddSubject: %v", err)
	}
	return id
}
