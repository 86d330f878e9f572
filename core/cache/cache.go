// Package cache provides LRU caching for parsed documents and rendered
// output.
package cache

import (
	"container/list"
	"encoding/hex"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeebo/blake3"

	"github.com/suin/go-taml/core/taml"
)

// Cache is a generic LRU cache interface.
type Cache[K comparable, V any] interface {
	// Get retrieves a value from the cache.
	Get(key K) (V, bool)

	// Put stores a value in the cache.
	Put(key K, value V)

	// Remove removes a value from the cache.
	Remove(key K)

	// Clear removes all entries from the cache.
	Clear()

	// Len returns the number of entries in the cache.
	Len() int

	// Stats returns cache statistics.
	Stats() Stats
}

// Stats contains cache statistics.
type Stats struct {
	Hits       int64
	Misses     int64
	Evictions  int64
	Size       int
	MaxSize    int
	TotalBytes int64
}

// Config contains cache configuration options.
type Config struct {
	// MaxSize is the maximum number of entries (0 = unlimited).
	MaxSize int

	// TTL is the time-to-live for entries (0 = no expiration).
	TTL time.Duration

	// OnEvict is called when an entry leaves the cache: LRU eviction,
	// Remove, or replacement by Put. Clear does not report entries.
	OnEvict func(key, value interface{})
}

// DefaultConfig returns a default cache configuration.
func DefaultConfig() Config {
	return Config{
		MaxSize: 100,
		TTL:     0,
		OnEvict: nil,
	}
}

// entry represents a cache entry.
type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// lruCache is a thread-safe LRU cache implementation.
type lruCache[K comparable, V any] struct {
	mu        sync.RWMutex
	config    Config
	entries   map[K]*list.Element
	evictList *list.List
	stats     Stats
}

// NewLRUCache creates a new LRU cache with the given configuration.
func NewLRUCache[K comparable, V any](config Config) Cache[K, V] {
	if config.MaxSize < 0 {
		config.MaxSize = 0
	}

	return &lruCache[K, V]{
		config:    config,
		entries:   make(map[K]*list.Element),
		evictList: list.New(),
	}
}

// Get retrieves a value from the cache.
func (c *lruCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}

	e := ent.Value.(*entry[K, V])
	if c.config.TTL > 0 && time.Now().After(e.expiresAt) {
		c.removeElement(ent)
		c.stats.Misses++
		var zero V
		return zero, false
	}

	// Most recently used moves to the front.
	c.evictList.MoveToFront(ent)
	c.stats.Hits++
	return e.value, true
}

// Put stores a value in the cache.
func (c *lruCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		c.evictList.MoveToFront(ent)
		e := ent.Value.(*entry[K, V])
		if c.config.OnEvict != nil {
			c.config.OnEvict(key, e.value)
		}
		e.value = value
		if c.config.TTL > 0 {
			e.expiresAt = time.Now().Add(c.config.TTL)
		}
		return
	}

	e := &entry[K, V]{
		key:   key,
		value: value,
	}
	if c.config.TTL > 0 {
		e.expiresAt = time.Now().Add(c.config.TTL)
	}

	ent := c.evictList.PushFront(e)
	c.entries[key] = ent

	if c.config.MaxSize > 0 && c.evictList.Len() > c.config.MaxSize {
		c.removeOldest()
	}
}

// Remove removes a value from the cache.
func (c *lruCache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		c.removeElement(ent)
	}
}

// Clear removes all entries from the cache.
func (c *lruCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*list.Element)
	c.evictList.Init()
	c.stats.Size = 0
}

// Len returns the number of entries in the cache.
func (c *lruCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.evictList.Len()
}

// Stats returns cache statistics.
func (c *lruCache[K, V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := c.stats
	s.Size = c.evictList.Len()
	s.MaxSize = c.config.MaxSize
	return s
}

// removeOldest removes the oldest entry from the cache.
func (c *lruCache[K, V]) removeOldest() {
	ent := c.evictList.Back()
	if ent != nil {
		c.removeElement(ent)
		c.stats.Evictions++
	}
}

// removeElement removes an element from the cache.
func (c *lruCache[K, V]) removeElement(ent *list.Element) {
	c.evictList.Remove(ent)
	e := ent.Value.(*entry[K, V])
	delete(c.entries, e.key)

	if c.config.OnEvict != nil {
		c.config.OnEvict(e.key, e.value)
	}
}

// DocumentCache caches parse trees by their source text, so repeated
// requests for the same input skip the parse.
type DocumentCache struct {
	cache Cache[string, *taml.Document]
}

// NewDocumentCache creates a document cache.
func NewDocumentCache(config Config) *DocumentCache {
	return &DocumentCache{
		cache: NewLRUCache[string, *taml.Document](config),
	}
}

// NewDefaultDocumentCache creates a document cache with default configuration.
func NewDefaultDocumentCache() *DocumentCache {
	return NewDocumentCache(DefaultConfig())
}

// Get retrieves the parse tree for source, if cached.
func (c *DocumentCache) Get(source string) (*taml.Document, bool) {
	return c.cache.Get(source)
}

// Put stores the parse tree for source.
func (c *DocumentCache) Put(source string, doc *taml.Document) {
	c.cache.Put(source, doc)
}

// Clear removes all cached documents.
func (c *DocumentCache) Clear() {
	c.cache.Clear()
}

// Len returns the number of cached documents.
func (c *DocumentCache) Len() int {
	return c.cache.Len()
}

// Stats returns cache statistics.
func (c *DocumentCache) Stats() Stats {
	return c.cache.Stats()
}

// RenderCache caches rendered output keyed by input and renderer name.
// Byte usage is tracked exactly: output sizes are added on Put and
// subtracted when entries leave the cache.
type RenderCache struct {
	cache Cache[string, []byte]
	bytes atomic.Int64
}

// NewRenderCache creates a render cache holding at most maxEntries
// outputs.
func NewRenderCache(maxEntries int) *RenderCache {
	rc := &RenderCache{}
	rc.cache = NewLRUCache[string, []byte](Config{
		MaxSize: maxEntries,
		OnEvict: func(key, value interface{}) {
			if data, ok := value.([]byte); ok {
				rc.bytes.Add(-int64(len(data)))
			}
		},
	})
	return rc
}

// Key derives the cache key for rendering input with the named renderer:
// the BLAKE3 hash of both, separated by a zero byte.
func (c *RenderCache) Key(input []byte, renderer string) string {
	h := blake3.New()
	h.Write(input)
	h.Write([]byte{0})
	h.Write([]byte(renderer))
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached rendering.
func (c *RenderCache) Get(key string) ([]byte, bool) {
	return c.cache.Get(key)
}

// Put stores a rendering.
func (c *RenderCache) Put(key string, output []byte) {
	c.cache.Put(key, output)
	c.bytes.Add(int64(len(output)))
}

// Clear removes all cached renderings.
func (c *RenderCache) Clear() {
	c.cache.Clear()
	c.bytes.Store(0)
}

// Len returns the number of cached renderings.
func (c *RenderCache) Len() int {
	return c.cache.Len()
}

// Stats returns cache statistics including exact byte usage.
func (c *RenderCache) Stats() Stats {
	s := c.cache.Stats()
	s.TotalBytes = c.bytes.Load()
	return s
}
