// Package cache provides small typed TTL caches shared by the provider
// clients and the cover resolver. Entries are immutable once stored and a
// hit never triggers further work; caching is a best-effort speed-up, not a
// correctness requirement.
package cache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is a typed wrapper around a TTL store with insert-or-overwrite
// semantics. Expired entries are evicted lazily on access and by a periodic
// sweep. Safe for concurrent use; lives for the process lifetime.
type Cache[V any] struct {
	store *gocache.Cache
}

// New creates a cache whose entries expire after ttl. The sweep interval is
// derived from the TTL; a non-positive ttl yields entries that never expire.
func New[V any](ttl time.Duration) *Cache[V] {
	sweep := ttl
	if sweep <= 0 {
		ttl = gocache.NoExpiration
		sweep = time.Hour
	}
	return &Cache[V]{store: gocache.New(ttl, sweep)}
}

// Get returns the entry stored under key, if present and unexpired.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	raw, ok := c.store.Get(key)
	if !ok {
		return zero, false
	}
	v, ok := raw.(V)
	if !ok {
		return zero, false
	}
	return v, true
}

// Set stores v under key, overwriting any previous entry.
func (c *Cache[V]) Set(key string, v V) {
	c.store.SetDefault(key, v)
}

// Len returns the number of unexpired entries.
func (c *Cache[V]) Len() int {
	return c.store.ItemCount()
}

// Key builds a normalized cache key from query parts: lowercased, trimmed,
// joined by "|" so that ("A", "B") and ("a ", "b") collide as intended.
func Key(parts ...string) string {
	normalized := make([]string, len(parts))
	for i, p := range parts {
		normalized[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(normalized, "|")
}
