// Package cache provides a small in-process TTL cache with LRU eviction,
// used to memoize budget overview responses between writes.
package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// TTLCache caches up to maxEntries values for at most ttl each, evicting the
// least recently used entry when full. Safe for concurrent use.
type TTLCache[T any] struct {
	mu         sync.Mutex
	maxEntries int
	ttl        time.Duration
	byKey      map[string]*list.Element
	order      *list.List // front = most recently used
}

type entry[T any] struct {
	key       string
	value     T
	expiresAt time.Time
}

func NewTTL[T any](maxEntries int, ttl time.Duration) *TTLCache[T] {
	return &TTLCache[T]{
		maxEntries: maxEntries,
		ttl:        ttl,
		byKey:      make(map[string]*list.Element),
		order:      list.New(),
	}
}

// Get returns the cached value and whether it was present and fresh.
func (c *TTLCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.byKey[key]
	if !ok {
		return zero, false
	}
	e := elem.Value.(*entry[T])
	if time.Now().After(e.expiresAt) {
		c.remove(elem)
		return zero, false
	}
	c.order.MoveToFront(elem)
	return e.value, true
}

// Set stores a value, resetting its TTL, and evicts the LRU entry when over
// capacity.
func (c *TTLCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{key: key, value: value, expiresAt: time.Now().Add(c.ttl)}
	if elem, ok := c.byKey[key]; ok {
		elem.Value = e
		c.order.MoveToFront(elem)
		return
	}
	c.byKey[key] = c.order.PushFront(e)
	if c.order.Len() > c.maxEntries {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
}

// Delete drops a single key.
func (c *TTLCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.byKey[key]; ok {
		c.remove(elem)
	}
}

// DeletePrefix drops every key with the given prefix and returns how many
// were removed. Keys are namespaced per user, so a write invalidates all of
// that user's cached views in one call.
func (c *TTLCache[T]) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stale []*list.Element
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		if strings.HasPrefix(elem.Value.(*entry[T]).key, prefix) {
			stale = append(stale, elem)
		}
	}
	for _, elem := range stale {
		c.remove(elem)
	}
	return len(stale)
}

// Sweep removes expired entries and returns how many were dropped. Intended
// to run from a periodic cleanup goroutine.
func (c *TTLCache[T]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var stale []*list.Element
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*entry[T]).expiresAt) {
			stale = append(stale, elem)
		}
	}
	for _, elem := range stale {
		c.remove(elem)
	}
	return len(stale)
}

// Len reports the current entry count.
func (c *TTLCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byKey)
}

func (c *TTLCache[T]) remove(elem *list.Element) {
	delete(c.byKey, elem.Value.(*entry[T]).key)
	c.order.Remove(elem)
}
