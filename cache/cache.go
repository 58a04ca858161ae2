package cache

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e entry[T]) expired() bool {
	// Si expiresAt est zero value, l'entrée n'expire jamais
	if e.expiresAt.IsZero() {
		return false
	}
	return time.Now().After(e.expiresAt)
}

// Cache est un cache clé/valeur générique avec TTL optionnel.
// ttl == 0 signifie pas d'expiration.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	ttl     time.Duration
}

func New[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		entries: make(map[string]entry[T]),
		ttl:     ttl,
	}
}

func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[key]
	if !exists || e.expired() {
		var zero T
		return zero, false
	}
	return e.value, true
}

func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(key, value)
}

// set attend le verrou en écriture
func (c *Cache[T]) set(key string, value T) {
	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = time.Now().Add(c.ttl)
	}

	c.entries[key] = entry[T]{
		value:     value,
		expiresAt: expiresAt,
	}
}

// GetOrCompute returns the cached value for key, or runs compute and caches
// its result. compute returning false means "nothing to cache": the result is
// returned to the caller but not stored. compute runs under the write lock,
// so concurrent callers never compute the same key twice.
func (c *Cache[T]) GetOrCompute(key string, compute func() (T, bool)) (T, bool) {
	if value, ok := c.Get(key); ok {
		return value, true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Un autre appelant a pu remplir l'entrée entre les deux verrous
	if e, exists := c.entries[key]; exists && !e.expired() {
		return e.value, true
	}

	value, ok := compute()
	if ok {
		c.set(key, value)
	}
	return value, ok
}

func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry[T])
}

// CleanExpired retire les entrées expirées
func (c *Cache[T]) CleanExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if e.expired() {
			delete(c.entries, key)
		}
	}
}

// Len returns the number of entries, expired included.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
