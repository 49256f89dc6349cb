package models

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache is a bounded set of model handles keyed by model id. When full, adding a new id
// evicts the least recently used one. It is safe for concurrent use.
type Cache[V any] struct {
	entries *lru.Cache[string, V]
}

// NewCache creates a cache holding at most capacity handles. capacity < 1 is treated as 1.
func NewCache[V any](capacity int) *Cache[V] {
	if capacity < 1 {
		capacity = 1
	}
	// lru.New only fails for a non-positive size.
	entries, _ := lru.New[string, V](capacity)
	return &Cache[V]{entries: entries}
}

// Get returns the handle for id and marks it as most recently used.
func (c *Cache[V]) Get(id string) (V, bool) {
	return c.entries.Get(id)
}

// Add stores v under id, replacing any previous handle. It reports whether an entry was evicted.
func (c *Cache[V]) Add(id string, v V) bool {
	return c.entries.Add(id, v)
}

// Len returns the number of cached handles.
func (c *Cache[V]) Len() int {
	return c.entries.Len()
}

// Keys returns the cached ids from least to most recently used.
func (c *Cache[V]) Keys() []string {
	return c.entries.Keys()
}
