package openstack

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// CacheType selects where discovered API versions are kept.
type CacheType string

const (
	// CacheTypeMemory keeps entries in the process.
	CacheTypeMemory CacheType = "memory"
	// CacheTypeNATS shares entries through a NATS KV bucket, fronted by
	// an in-process cache.
	CacheTypeNATS CacheType = "nats"
	// CacheTypeNone disables caching; every lookup rediscovers.
	CacheTypeNone CacheType = "none"
)

var (
	ErrNATSConfigRequired   = errors.New("NATS configuration required for NATS cache")
	ErrUnsupportedCacheType = errors.New("unsupported cache type")
	ErrCacheDisabled        = errors.New("cache disabled")
)

// CacheConfig selects and sizes the cache a session uses.
type CacheConfig struct {
	Type CacheType
	// MaxEntries bounds the in-process cache, including the front of a
	// NATS cache. Zero uses the default size.
	MaxEntries int
	// NATS is required when Type is CacheTypeNATS.
	NATS *NATSKVConfig
}

// NewCacheFromConfig builds the cache described by config. A nil config
// gives a default-sized memory cache.
func NewCacheFromConfig(config *CacheConfig) (Cache, error) {
	if config == nil {
		return NewMemoryCache(0), nil
	}

	switch config.Type {
	case CacheTypeMemory, "":
		return NewMemoryCache(config.MaxEntries), nil
	case CacheTypeNATS:
		shared, err := NewNATSKVCache(config.NATS)
		if err != nil {
			return nil, err
		}

		return NewTieredCache(NewMemoryCache(config.MaxEntries), shared), nil
	case CacheTypeNone:
		return disabledCache{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCacheType, config.Type)
	}
}

type disabledCache struct{}

func (disabledCache) Get(context.Context, string) (*CacheEntry, error) {
	return nil, ErrCacheDisabled
}

func (disabledCache) Set(context.Context, string, *CacheEntry) error { return nil }
func (disabledCache) Delete(context.Context, string) error           { return nil }
func (disabledCache) Clear(context.Context) error                    { return nil }
func (disabledCache) Has(context.Context, string) bool               { return false }

// TieredCache reads through a fast local cache to a shared one. Hits in
// the shared cache are copied into the local one; writes go to both.
type TieredCache struct {
	local  Cache
	shared Cache
}

var _ Cache = (*TieredCache)(nil)

// NewTieredCache puts local in front of shared.
func NewTieredCache(local, shared Cache) *TieredCache {
	return &TieredCache{local: local, shared: shared}
}

// Get returns the local entry if present, otherwise the shared one.
func (c *TieredCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	entry, err := c.local.Get(ctx, key)
	if err == nil {
		return entry, nil
	}

	entry, err = c.shared.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	_ = c.local.Set(ctx, key, entry)

	return entry, nil
}

// Set writes through to both tiers.
func (c *TieredCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	return errors.Join(c.local.Set(ctx, key, entry), c.shared.Set(ctx, key, entry))
}

// Delete removes key from both tiers.
func (c *TieredCache) Delete(ctx context.Context, key string) error {
	return errors.Join(c.local.Delete(ctx, key), c.shared.Delete(ctx, key))
}

// Clear empties both tiers.
func (c *TieredCache) Clear(ctx context.Context) error {
	return errors.Join(c.local.Clear(ctx), c.shared.Clear(ctx))
}

func (c *TieredCache) Has(ctx context.Context, key string) bool {
	return c.local.Has(ctx, key) || c.shared.Has(ctx, key)
}

// Close releases the shared tier if it holds a connection.
func (c *TieredCache) Close() {
	if closer, ok := c.shared.(interface{ Close() }); ok {
		closer.Close()
	}
}

// LoadBytes returns the payload cached under key.
func LoadBytes(ctx context.Context, cache Cache, key string) ([]byte, error) {
	entry, err := cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	return entry.Data, nil
}

// StoreBytes caches data under key for ttl. A zero ttl keeps it until
// evicted.
func StoreBytes(ctx context.Context, cache Cache, key string, data []byte, ttl time.Duration) error {
	entry := &CacheEntry{Data: data}
	if ttl > 0 {
		entry.ExpiresAt = time.Now().Add(ttl)
	}

	return cache.Set(ctx, key, entry)
}
