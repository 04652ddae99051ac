package provider

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/dgryski/go-farm"
	"github.com/shamaton/msgpack/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize is used when NewCache is given a non-positive size.
const DefaultCacheSize = 10000

// Cache is an LRU of neighbor lists shared by every worker of every run that
// wraps its factory with it. Entries are stored msgpack-encoded and keyed by
// the farm hash of the node. Failed lookups are not cached.
type Cache struct {
	mu        sync.Mutex
	entries   map[uint64]*list.Element
	evictList *list.List
	maxSize   int

	flight singleflight.Group

	hits      int64
	misses    int64
	evictions int64
}

type cacheEntry struct {
	hash  uint64
	node  string
	value []byte
}

// NewCache creates a cache holding at most maxSize neighbor lists.
func NewCache(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	return &Cache{
		entries:   make(map[uint64]*list.Element),
		evictList: list.New(),
		maxSize:   maxSize,
	}
}

func nodeHash(node string) uint64 {
	return farm.Hash64([]byte(node))
}

// Get returns the cached neighbors of node.
func (c *Cache) Get(node string) ([]string, bool) {
	h := nodeHash(node)

	c.mu.Lock()
	elem, ok := c.entries[h]
	if !ok || elem.Value.(*cacheEntry).node != node {
		// Absent, or a hash collision with another node
		c.mu.Unlock()
		return nil, false
	}
	c.evictList.MoveToFront(elem)
	data := elem.Value.(*cacheEntry).value
	c.mu.Unlock()

	var out []string
	if err := msgpack.Unmarshal(data, &out); err != nil {
		return nil, false
	}
	return out, true
}

// Put stores the neighbors of node, evicting the least recently used entry
// if the cache is full.
func (c *Cache) Put(node string, neighbors []string) error {
	if neighbors == nil {
		neighbors = []string{}
	}
	data, err := msgpack.Marshal(neighbors)
	if err != nil {
		return err
	}
	h := nodeHash(node)

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[h]; ok {
		c.evictList.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry)
		entry.node = node
		entry.value = data
		return nil
	}

	elem := c.evictList.PushFront(&cacheEntry{hash: h, node: node, value: data})
	c.entries[h] = elem

	if c.evictList.Len() > c.maxSize {
		c.evictOldest()
	}
	return nil
}

// evictOldest removes the least recently used entry. Caller holds c.mu.
func (c *Cache) evictOldest() {
	elem := c.evictList.Back()
	if elem != nil {
		c.evictList.Remove(elem)
		delete(c.entries, elem.Value.(*cacheEntry).hash)
		atomic.AddInt64(&c.evictions, 1)
	}
}

// Lookup answers from the cache or asks inner. Concurrent misses for the
// same node share one call to inner.
func (c *Cache) Lookup(node string, inner NeighborProvider) ([]string, error) {
	if out, ok := c.Get(node); ok {
		atomic.AddInt64(&c.hits, 1)
		return out, nil
	}
	atomic.AddInt64(&c.misses, 1)

	v, err, _ := c.flight.Do(node, func() (interface{}, error) {
		// A flight for node may have finished between Get and Do
		if out, ok := c.Get(node); ok {
			return out, nil
		}
		neighbors, err := inner.NeighborsOf(node)
		if err != nil {
			return nil, err
		}
		// A failed encode only costs a future miss
		_ = c.Put(node, neighbors)
		return neighbors, nil
	})
	if err != nil {
		return nil, err
	}
	// The slice is shared with other callers of the same flight
	return append([]string(nil), v.([]string)...), nil
}

// Wrap returns a factory whose providers consult the cache before the
// provider built by f.
func (c *Cache) Wrap(f Factory) Factory {
	return func(workerID int) (NeighborProvider, error) {
		inner, err := f(workerID)
		if err != nil {
			return nil, err
		}
		return &cachedProvider{cache: c, inner: inner}, nil
	}
}

// CacheStats reports cache occupancy and effectiveness.
type CacheStats struct {
	Size      int
	MaxSize   int
	Hits      int64
	Misses    int64
	Evictions int64
}

// Stats returns current cache statistics.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	size := len(c.entries)
	c.mu.Unlock()
	return CacheStats{
		Size:      size,
		MaxSize:   c.maxSize,
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Evictions: atomic.LoadInt64(&c.evictions),
	}
}

type cachedProvider struct {
	cache *Cache
	inner NeighborProvider
}

func (p *cachedProvider) NeighborsOf(node string) ([]string, error) {
	return p.cache.Lookup(node, p.inner)
}

func (p *cachedProvider) Close() error {
	return Close(p.inner)
}
