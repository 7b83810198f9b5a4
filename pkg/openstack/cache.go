package openstack

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fivetwenty-io/ostack/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrCacheKeyNotFound = errors.New("key not found")
	ErrCacheExpired     = errors.New("entry expired")
)

// Cache stores opaque entries by key. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Has(ctx context.Context, key string) bool
}

// CacheEntry is one cached value.
type CacheEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
	ETag      string    `json:"etag,omitempty"`
}

// Expired reports whether the entry is past its expiry. A zero expiry
// never expires.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// MemoryCache is a bounded in-process LRU cache.
type MemoryCache struct {
	mu      sync.Mutex
	maxSize int
	order   *list.List
	items   map[string]*list.Element
}

type memoryItem struct {
	key   string
	entry CacheEntry
}

// NewMemoryCache creates a cache holding at most maxSize entries.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = constants.DefaultCacheSize
	}

	return &MemoryCache{
		maxSize: maxSize,
		order:   list.New(),
		items:   make(map[string]*list.Element),
	}
}

// Get returns a copy of the entry stored under key.
func (c *MemoryCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.items[key]
	if !ok {
		return nil, ErrCacheKeyNotFound
	}

	item, _ := element.Value.(*memoryItem)
	if item.entry.Expired(time.Now()) {
		c.removeElement(element)

		return nil, ErrCacheExpired
	}

	c.order.MoveToFront(element)

	entry := item.entry
	entry.Data = append([]byte(nil), item.entry.Data...)

	return &entry, nil
}

// Set stores entry under key, evicting the least recently used entry when
// the cache is full.
func (c *MemoryCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := *entry
	stored.Data = append([]byte(nil), entry.Data...)

	if element, ok := c.items[key]; ok {
		item, _ := element.Value.(*memoryItem)
		item.entry = stored
		c.order.MoveToFront(element)

		return nil
	}

	for c.order.Len() >= c.maxSize {
		c.removeElement(c.order.Back())
	}

	c.items[key] = c.order.PushFront(&memoryItem{key: key, entry: stored})

	return nil
}

// Delete removes key.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.items[key]; ok {
		c.removeElement(element)
	}

	return nil
}

// Clear removes every entry.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.items = make(map[string]*list.Element)

	return nil
}

// Has reports whether a live entry exists for key.
func (c *MemoryCache) Has(ctx context.Context, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.items[key]
	if !ok {
		return false
	}

	item, _ := element.Value.(*memoryItem)

	return !item.entry.Expired(time.Now())
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}

// Cleanup drops expired entries.
func (c *MemoryCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	for element := c.order.Front(); element != nil; {
		next := element.Next()

		item, _ := element.Value.(*memoryItem)
		if item.entry.Expired(now) {
			c.removeElement(element)
		}

		element = next
	}
}

func (c *MemoryCache) removeElement(element *list.Element) {
	item, _ := element.Value.(*memoryItem)
	delete(c.items, item.key)
	c.order.Remove(element)
}
