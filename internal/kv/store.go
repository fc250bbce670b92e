// Package kv provides the durable key-value stores used to persist small
// installation-scoped values such as the bucket identity.
package kv

import "context"

// Store is a minimal string key-value store.
// Implementations must be safe for concurrent use and respect the context.
type Store interface {
	// Get returns the value for key. The boolean is false when the key was never set.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error
}
