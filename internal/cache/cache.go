// Package cache is a request-scoped, in-memory read cache: one
// *ConcurrentCache lives for the lifetime of a single Engine.evaluate*
// call and is discarded at the end, per SPEC_FULL.md §3.3. It is
// trimmed from graft's internal.ConcurrentCache down to its L1
// (sharded, in-memory) tier only — nodeflow has no use for an L2 disk
// tier since evaluations hold no state between calls.
package cache

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"
)

// item is a single cached value plus its optional expiry.
type item struct {
	value     interface{}
	expiresAt time.Time
}

func (it *item) expired() bool {
	return !it.expiresAt.IsZero() && time.Now().After(it.expiresAt)
}

// shard is one lock-guarded partition of the cache's key space.
type shard struct {
	mu    sync.RWMutex
	items map[string]*item
}

// Config tunes a ConcurrentCache.
type Config struct {
	// Shards is rounded up to the next power of two; 0 defaults to 16.
	Shards int
	// TTL is the default expiry for Set; 0 means entries never expire.
	TTL time.Duration
}

// ConcurrentCache is a sharded, thread-safe cache keyed by string,
// sized for one evaluation's worth of resolved (path, rid) reads.
type ConcurrentCache struct {
	shards    []*shard
	shardMask uint32
	ttl       time.Duration

	hits, misses, sets atomic.Uint64
}

// New builds a ConcurrentCache per cfg.
func New(cfg Config) *ConcurrentCache {
	n := 16
	if cfg.Shards > 0 {
		n = 1
		for n < cfg.Shards {
			n <<= 1
		}
	}
	c := &ConcurrentCache{shards: make([]*shard, n), shardMask: uint32(n - 1), ttl: cfg.TTL}
	for i := range c.shards {
		c.shards[i] = &shard{items: make(map[string]*item)}
	}
	return c
}

func (c *ConcurrentCache) shardFor(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return c.shards[h.Sum32()&c.shardMask]
}

// Get returns the cached value for key, or (nil, false) if absent or expired.
func (c *ConcurrentCache) Get(key string) (interface{}, bool) {
	sh := c.shardFor(key)
	sh.mu.RLock()
	it, found := sh.items[key]
	if !found {
		sh.mu.RUnlock()
		c.misses.Add(1)
		return nil, false
	}
	if it.expired() {
		sh.mu.RUnlock()
		sh.mu.Lock()
		delete(sh.items, key)
		sh.mu.Unlock()
		c.misses.Add(1)
		return nil, false
	}
	value := it.value
	sh.mu.RUnlock()
	c.hits.Add(1)
	return value, true
}

// Set stores value under key with the cache's default TTL.
func (c *ConcurrentCache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key, expiring after ttl (0 = never).
func (c *ConcurrentCache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	sh := c.shardFor(key)
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	sh.mu.Lock()
	sh.items[key] = &item{value: value, expiresAt: expiresAt}
	sh.mu.Unlock()
	c.sets.Add(1)
}

// Stats is a point-in-time snapshot of hit/miss/set counters.
type Stats struct {
	Hits, Misses, Sets uint64
}

// Stats returns the current counters.
func (c *ConcurrentCache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Sets: c.sets.Load()}
}
