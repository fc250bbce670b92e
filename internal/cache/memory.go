// Package cache provides the caching and connection layer shared by Bifrost services:
// a contention-free in-memory memo (Otter) and the Redis client factory.
package cache

import (
	"fmt"
	"time"

	"github.com/maypok86/otter"

	"github.com/rafaeljc/bifrost/internal/observability"
)

// MemoryCache is an in-memory memo keyed by string, backed by Otter's S3-FIFO cache.
// It records hit/miss metrics under the given cache name.
type MemoryCache[V any] struct {
	name  string
	store otter.Cache[string, V]
}

// NewMemoryCache initializes the in-memory cache with strict limits.
// capacity: Max number of items (Hard Cap to prevent OOM).
// ttl: Time-To-Live for items; zero keeps entries until evicted or deleted.
func NewMemoryCache[V any](name string, capacity int, ttl time.Duration) (*MemoryCache[V], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("memory cache %q: capacity must be positive, got %d", name, capacity)
	}

	builder := otter.MustBuilder[string, V](capacity)

	var (
		store otter.Cache[string, V]
		err   error
	)
	if ttl > 0 {
		store, err = builder.WithTTL(ttl).Build()
	} else {
		store, err = builder.Build()
	}
	if err != nil {
		return nil, fmt.Errorf("memory cache %q: %w", name, err)
	}

	return &MemoryCache[V]{name: name, store: store}, nil
}

// Get retrieves a value from memory.
func (c *MemoryCache[V]) Get(key string) (V, bool) {
	v, ok := c.store.Get(key)
	if ok {
		observability.MemoCacheHits.WithLabelValues(c.name).Inc()
	} else {
		observability.MemoCacheMisses.WithLabelValues(c.name).Inc()
	}
	return v, ok
}

// Set adds or updates a value. It reports false when Otter rejected the write
// (e.g., write buffer contention); callers must tolerate a later miss.
func (c *MemoryCache[V]) Set(key string, value V) bool {
	return c.store.Set(key, value)
}

// Del removes a value from memory.
func (c *MemoryCache[V]) Del(key string) {
	c.store.Delete(key)
}

// Clear drops every entry.
func (c *MemoryCache[V]) Clear() {
	c.store.Clear()
}

// Close shuts down the cache and its background cleanup goroutines.
func (c *MemoryCache[V]) Close() {
	c.store.Close()
}
