// Package cache provides the process-local TTL caches consulted at every
// LLM and search boundary. Entries are evicted by age or by capacity in
// insertion order, which approximates LRU closely enough for the 5 minute
// TTL these caches run with.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/claimstack/pricing-service/internal/textnorm"
)

// DefaultTTL is the entry lifetime when none is configured.
const DefaultTTL = 5 * time.Minute

// DefaultCapacity is the entry cap when none is configured.
const DefaultCapacity = 1000

// Stats is a point-in-time snapshot of cache effectiveness.
type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
	Size    int     `json:"size"`
}

type entry struct {
	key        string
	value      any
	insertedAt time.Time
}

// Cache is a size-bounded TTL cache safe for concurrent use. Keys are
// normalized (lowercase, single-space, trimmed) before lookup so callers
// can pass raw descriptions and queries.
type Cache struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	order    *list.List // front = oldest
	items    map[string]*list.Element

	hits   int64
	misses int64

	// now is swappable for tests.
	now func() time.Time
}

// New creates a cache with the given TTL and capacity. Non-positive values
// fall back to the defaults.
func New(ttl time.Duration, capacity int) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		ttl:      ttl,
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element),
		now:      time.Now,
	}
}

// Get returns the cached value for key, if present and fresh.
func (c *Cache) Get(key string) (any, bool) {
	k := textnorm.Key(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[k]
	if !ok {
		c.misses++
		return nil, false
	}
	e := el.Value.(*entry)
	if c.now().Sub(e.insertedAt) > c.ttl {
		c.removeLocked(el)
		c.misses++
		return nil, false
	}
	c.hits++
	return e.value, true
}

// Set stores value under key, evicting the oldest entry when at capacity.
func (c *Cache) Set(key string, value any) {
	k := textnorm.Key(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[k]; ok {
		e := el.Value.(*entry)
		e.value = value
		e.insertedAt = c.now()
		c.order.MoveToBack(el)
		return
	}

	for c.order.Len() >= c.capacity {
		oldest := c.order.Front()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest)
	}

	el := c.order.PushBack(&entry{key: k, value: value, insertedAt: c.now()})
	c.items[k] = el
}

// Evict removes key from the cache if present.
func (c *Cache) Evict(key string) {
	k := textnorm.Key(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[k]; ok {
		c.removeLocked(el)
	}
}

// Purge drops every entry. Counters are preserved.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.items = make(map[string]*list.Element)
}

// Stats returns hit/miss counters and the current size.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	var rate float64
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return Stats{
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: rate,
		Size:    c.order.Len(),
	}
}

func (c *Cache) removeLocked(el *list.Element) {
	e := el.Value.(*entry)
	c.order.Remove(el)
	delete(c.items, e.key)
}
