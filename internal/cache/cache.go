// Package cache provides bounded, time-limited memoization for analysis
// results. Caches are constructed per analysis run and passed explicitly;
// there is no process-wide state and no external invalidation API.
package cache

import (
	"container/list"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/zeebo/blake3"
)

// Cache is a size-bounded, TTL-bounded memo with least-recently-used
// eviction. It is safe for concurrent use. Values for a given key are
// deterministic functions of the key, so a racing double-insert resolving
// as last-write-wins is acceptable.
type Cache[V any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	entries map[string]*list.Element
	order   *list.List // front = most recently used

	hits   uint64
	misses uint64
}

type entry[V any] struct {
	key     string
	value   V
	expires time.Time
}

// New creates a cache holding at most maxSize entries, each valid for ttl.
func New[V any](maxSize int, ttl time.Duration) *Cache[V] {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Cache[V]{
		maxSize: maxSize,
		ttl:     ttl,
		entries: make(map[string]*list.Element, maxSize),
		order:   list.New(),
	}
}

// Key builds a normalized composite cache key from its parts. Long keys
// (file paths, project roots) are hashed so key size stays bounded.
func Key(parts ...string) string {
	joined := strings.Join(parts, ":")
	if len(joined) <= 64 {
		return joined
	}
	sum := blake3.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])
}

// Get retrieves a cached value. An entry past its TTL is never returned;
// it is removed on access.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses++
		return zero, false
	}

	ent := elem.Value.(*entry[V])
	if time.Now().After(ent.expires) {
		c.order.Remove(elem)
		delete(c.entries, key)
		c.misses++
		return zero, false
	}

	c.order.MoveToFront(elem)
	c.hits++
	return ent.value, true
}

// Set stores a value, evicting the least-recently-used entry when full.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		ent := elem.Value.(*entry[V])
		ent.value = value
		ent.expires = time.Now().Add(c.ttl)
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.maxSize {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*entry[V]).key)
		}
	}

	c.entries[key] = c.order.PushFront(&entry[V]{
		key:     key,
		value:   value,
		expires: time.Now().Add(c.ttl),
	})
}

// GetOrCompute returns the cached value for key, computing and storing it
// on a miss. Concurrent computes for the same key may race; both produce
// the same deterministic value.
func (c *Cache[V]) GetOrCompute(key string, compute func() V) V {
	if v, ok := c.Get(key); ok {
		return v
	}
	v := compute()
	c.Set(key, v)
	return v
}

// Clear drops every entry. Used on memory pressure.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element, c.maxSize)
	c.order.Init()
}

// Len returns the current number of entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats reports cache effectiveness. Advisory only: consumed by the
// diagnostics report, never by correctness logic.
type Stats struct {
	Entries int     `json:"entries"`
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// Stats returns a snapshot of hit/miss counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Entries: c.order.Len(),
		Hits:    c.hits,
		Misses:  c.misses,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}
