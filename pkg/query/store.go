// Package query is a small, host-framework-agnostic cache engine for remote
// reads and writes. Queries are memoized under deterministic keys and
// deduplicated while in flight; mutations declare which cached reads they
// invalidate on success.
package query

import "context"

// Store is the key-value backend memoizing query results. Implementations
// must be safe for concurrent use.
type Store interface {
	// Get returns the cached value for key, and whether one exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value under key, replacing any previous one wholesale.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes a single key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}
