package testutil

import (
	"testing"

	"github.com/pmarks/flashdeck/internal/storage"
	"github.com/stretchr/testify/require"
)

// NewTestStore creates an in-memory SQLite-backed store with migrations
// applied. The store lives on a single connection, so it persists for the
// lifetime of the test.
func NewTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()

	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	return store
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}
