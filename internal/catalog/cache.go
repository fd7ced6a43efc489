package catalog

import (
	"sync"
	"time"
)

type cacheItem[V any] struct {
	value   V
	expires time.Time
}

// Cache holds backend responses for a fixed TTL to avoid redundant API calls.
// A zero TTL disables caching.
type Cache[V any] struct {
	mu   sync.RWMutex
	ttl  time.Duration
	now  func() time.Time
	data map[string]cacheItem[V]
}

// NewCache creates a cache with the given TTL
func NewCache[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		ttl:  ttl,
		now:  time.Now,
		data: make(map[string]cacheItem[V]),
	}
}

// Get retrieves a cached value that has not expired
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.data[key]
	if !ok || !c.now().Before(item.expires) {
		var zero V
		return zero, false
	}
	return item.value, true
}

// Set stores a value
func (c *Cache[V]) Set(key string, val V) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = cacheItem[V]{value: val, expires: c.now().Add(c.ttl)}
}

// Purge drops every entry
func (c *Cache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]cacheItem[V])
}
