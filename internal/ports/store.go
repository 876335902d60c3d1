// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter (always) for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrNotFound, ErrUnavailable, etc.)
//   - Keep interfaces small and focused
package ports

import (
	"context"
)

// KeyValueStore is the persistent key-value collaborator. The application
// stores the whole quote collection as one serialized blob under a fixed key,
// and the last-selected category filter under another.
type KeyValueStore interface {
	// Get retrieves a value by key.
	// Returns domain.ErrNotFound if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value under the key, creating or replacing as appropriate.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes a key. Absent keys are not an error.
	Delete(ctx context.Context, key string) error
}

// SessionStore is the ephemeral per-session collaborator. Same contract as
// KeyValueStore, but contents live only for the process lifetime. Used to
// remember the last-displayed quote; cleared when a filter becomes active.
type SessionStore interface {
	KeyValueStore
}
