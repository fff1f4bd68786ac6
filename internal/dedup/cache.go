// Package dedup provides a bounded recency cache over transaction
// signatures. It exists to absorb re-delivery (webhook retries, overlapping
// poll pages), not to guarantee exactly-once processing: the cache is
// in-memory, single-process and lost on restart.
package dedup

import (
	"sync"
	"time"
)

// DefaultCapacity bounds the cache when no capacity is configured.
const DefaultCapacity = 512

// Cache maps transaction signatures to the time they were first accepted.
// When full, the oldest-inserted entry is evicted: insertion order, not
// access order. Entries have no TTL; they age out by capacity pressure only.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]time.Time
	order    []string // insertion order, head is oldest
}

// New creates a cache holding at most capacity signatures.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]time.Time, capacity),
		order:    make([]string, 0, capacity),
	}
}

// Has reports whether the signature was already inserted. It does not touch
// eviction order.
func (c *Cache) Has(signature string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[signature]
	return ok
}

// Insert records a signature. Re-inserting an existing signature refreshes
// its stored time but keeps its place in the eviction order. At capacity the
// single oldest-inserted entry is evicted first.
func (c *Cache) Insert(signature string, t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[signature]; ok {
		c.entries[signature] = t
		return
	}

	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[signature] = t
	c.order = append(c.order, signature)
}

// Len returns the number of cached signatures.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
