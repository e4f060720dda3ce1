// Package storage persists the application state as independent blobs, one per
// logical namespace. There is no transactional coupling between namespaces and
// no schema versioning: the stored shape is exactly the in-memory shape.
package storage

import "context"

// The four persisted namespaces.
const (
	NamespaceCards   = "cards"
	NamespaceDecks   = "decks"
	NamespaceSession = "session"
	NamespaceStats   = "stats"
)

// Store loads and saves opaque blobs keyed by namespace.
type Store interface {
	// Load returns the blob stored under the namespace, or nil when absent.
	Load(ctx context.Context, namespace string) ([]byte, error)
	// Save overwrites the blob stored under the namespace.
	Save(ctx context.Context, namespace string, blob []byte) error
	// Clear removes the namespace entirely. Clearing an absent namespace is
	// not an error.
	Clear(ctx context.Context, namespace string) error
	Close() error
}
