package resolver

import "sync"

// cache is a concurrent map for immutable on-chain facts.
type cache[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]V
}

func newCache[K comparable, V any]() *cache[K, V] {
	return &cache[K, V]{data: make(map[K]V)}
}

func (c *cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	v, ok := c.data[key]
	c.mu.RUnlock()
	return v, ok
}

func (c *cache[K, V]) Set(key K, v V) {
	c.mu.Lock()
	c.data[key] = v
	c.mu.Unlock()
}
