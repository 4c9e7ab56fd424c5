// Package hashcache maps content hashes to the spans that hold that content.
//
// Each chunk of the element store owns one Cache. Keys are 64-bit FNV-1a
// hashes of the encoded elements; values are the local spans whose content
// produced the hash. Several spans may share a hash (collisions or the same
// content stored twice after a gap reuse), so lookups return every candidate
// and the caller compares contents.
//
// Concurrency: the cache is split into 16 shards with per-shard mutexes so
// that readers holding only the store's read lock can look up concurrently.
//
// Capacity bounds the number of distinct hashes; the least recently used hash
// is evicted when full. Eviction only loses a dedup opportunity, never data.
package hashcache

import (
	"container/list"
	"hash/fnv"
	"sync"
)

// numShards is the number of independent cache shards.
// Must be a power of two for fast modulo via bitmask.
const numShards = 16

// Span is a local element span [Start, Start+Len) inside a chunk.
type Span struct {
	Start uint32
	Len   uint32
}

// End returns the exclusive end of s.
func (s Span) End() uint32 { return s.Start + s.Len }

// Overlaps reports whether s and o share at least one element.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End() && o.Start < s.End()
}

// Sum hashes encoded element bytes.
func Sum(data []byte) uint64 {
	h := fnv.New64a()
	h.Write(data) //nolint:errcheck // fnv hash.Write never errors
	return h.Sum64()
}

// cacheEntry stores the spans recorded under one hash.
type cacheEntry struct {
	key   uint64
	spans []Span
}

// lruCache is an LRU cache mapping content hashes to spans.
type lruCache struct {
	mu       sync.Mutex
	capacity int // 0 = unbounded
	items    map[uint64]*list.Element
	order    *list.List // front = most recently used
}

func newCache(capacity int) *lruCache {
	return &lruCache{
		capacity: capacity,
		items:    make(map[uint64]*list.Element),
		order:    list.New(),
	}
}

func (c *lruCache) lookup(key uint64) []Span {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.items[key]
	if !ok {
		return nil
	}
	c.order.MoveToFront(elem)
	entry := elem.Value.(*cacheEntry)
	out := make([]Span, len(entry.spans))
	copy(out, entry.spans)
	return out
}

func (c *lruCache) store(key uint64, s Span) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry)
		for _, have := range entry.spans {
			if have == s {
				return
			}
		}
		entry.spans = append(entry.spans, s)
		return
	}

	if c.capacity > 0 && c.order.Len() >= c.capacity {
		if back := c.order.Back(); back != nil {
			evicted := c.order.Remove(back).(*cacheEntry)
			delete(c.items, evicted.key)
		}
	}
	c.items[key] = c.order.PushFront(&cacheEntry{key: key, spans: []Span{s}})
}

// dropOverlapping removes every span overlapping cut and returns how many
// spans were removed.
func (c *lruCache) dropOverlapping(cut Span) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, elem := range c.items {
		entry := elem.Value.(*cacheEntry)
		kept := entry.spans[:0]
		for _, s := range entry.spans {
			if s.Overlaps(cut) {
				removed++
				continue
			}
			kept = append(kept, s)
		}
		entry.spans = kept
		if len(kept) == 0 {
			c.order.Remove(elem)
			delete(c.items, key)
		}
	}
	return removed
}

func (c *lruCache) len() int {
	c.mu.Lock()
	n := c.order.Len()
	c.mu.Unlock()
	return n
}

// Cache distributes hashes across multiple lruCache shards
// to reduce mutex contention under concurrent access.
type Cache struct {
	shards [numShards]*lruCache
}

// New creates a cache holding at most capacity distinct hashes.
// A capacity of 0 means unbounded.
func New(capacity int) *Cache {
	c := &Cache{}
	perShard := capacity / numShards
	if perShard < 1 && capacity > 0 {
		perShard = 1
	}
	for i := range c.shards {
		c.shards[i] = newCache(perShard)
	}
	return c
}

func (c *Cache) shardFor(key uint64) *lruCache {
	return c.shards[key&(numShards-1)]
}

// Lookup returns a copy of the spans recorded under key.
func (c *Cache) Lookup(key uint64) []Span {
	return c.shardFor(key).lookup(key)
}

// Store records that span s holds content hashing to key.
func (c *Cache) Store(key uint64, s Span) {
	c.shardFor(key).store(key, s)
}

// DropOverlapping forgets every span that overlaps cut.
func (c *Cache) DropOverlapping(cut Span) int {
	removed := 0
	for _, s := range c.shards {
		removed += s.dropOverlapping(cut)
	}
	return removed
}

// Len returns the number of distinct hashes cached.
func (c *Cache) Len() int {
	total := 0
	for _, s := range c.shards {
		total += s.len()
	}
	return total
}
