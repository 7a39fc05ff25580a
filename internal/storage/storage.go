package storage

import (
	"context"
	"io"
)

// Storage defines the interface for stored image files.
// The only implementation today is the local filesystem; the interface keeps
// the service layer independent of where bytes land.
type Storage interface {
	// Put stores a file under key and returns the relative path for
	// retrieval. The key must resolve inside the storage root; keys that
	// escape it are rejected with a security error.
	Put(ctx context.Context, key string, content io.Reader) (string, error)

	// Get retrieves a file by its key.
	// Returns an io.ReadCloser that must be closed by the caller.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a file by its key.
	// Returns nil if the file doesn't exist (idempotent).
	Delete(ctx context.Context, key string) error

	// URL returns the URL path for accessing a stored file.
	URL(key string) string

	// Exists checks if a file exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)
}
