package openstack

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fivetwenty-io/ostack/internal/constants"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSKVConfig configures the NATS JetStream key-value cache backend.
type NATSKVConfig struct {
	// URL of the NATS server, e.g. "nats://127.0.0.1:4222". Ignored when
	// Conn is set.
	URL string
	// Conn reuses an existing connection, which the cache will not close.
	Conn *nats.Conn
	// Bucket defaults to "ostack-cache".
	Bucket string
	// TTL is the bucket-wide maximum age of entries. Zero keeps entries
	// until their own expiry is checked on read.
	TTL time.Duration
	// KeyPrefix namespaces keys, e.g. per cloud, when several clouds share
	// one bucket.
	KeyPrefix string
	// Options are passed to nats.Connect.
	Options []nats.Option
}

// NATSKVCache stores entries in a JetStream key-value bucket, so that
// several processes share what one of them discovered.
type NATSKVCache struct {
	conn      *nats.Conn
	ownsConn  bool
	kv        jetstream.KeyValue
	keyPrefix string
}

var _ Cache = (*NATSKVCache)(nil)

// NewNATSKVCache connects (unless a connection is given) and creates or
// binds the bucket.
func NewNATSKVCache(config *NATSKVConfig) (*NATSKVCache, error) {
	if config == nil {
		return nil, ErrNATSConfigRequired
	}

	conn := config.Conn
	ownsConn := false

	if conn == nil {
		url := config.URL
		if url == "" {
			url = nats.DefaultURL
		}

		var err error

		conn, err = nats.Connect(url, config.Options...)
		if err != nil {
			return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
		}

		ownsConn = true
	}

	js, err := jetstream.New(conn)
	if err != nil {
		closeIfOwned(conn, ownsConn)

		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	bucket := config.Bucket
	if bucket == "" {
		bucket = constants.DefaultNATSBucket
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.ShortHTTPTimeout)
	defer cancel()

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "ostack client cache",
		TTL:         config.TTL,
	})
	if err != nil {
		closeIfOwned(conn, ownsConn)

		return nil, fmt.Errorf("opening KV bucket %s: %w", bucket, err)
	}

	return &NATSKVCache{conn: conn, ownsConn: ownsConn, kv: kv, keyPrefix: config.KeyPrefix}, nil
}

// Get reads and decodes the entry for key.
func (c *NATSKVCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	stored, err := c.kv.Get(ctx, c.key(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrCacheKeyNotFound
		}

		return nil, fmt.Errorf("reading cache key: %w", err)
	}

	var entry CacheEntry

	err = json.Unmarshal(stored.Value(), &entry)
	if err != nil {
		return nil, fmt.Errorf("decoding cache entry: %w", err)
	}

	if entry.Expired(time.Now()) {
		_ = c.kv.Delete(ctx, c.key(key))

		return nil, ErrCacheExpired
	}

	return &entry, nil
}

// Set encodes and stores entry.
func (c *NATSKVCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	encoded, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	_, err = c.kv.Put(ctx, c.key(key), encoded)
	if err != nil {
		return fmt.Errorf("writing cache key: %w", err)
	}

	return nil
}

// Delete removes key.
func (c *NATSKVCache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(ctx, c.key(key))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("deleting cache key: %w", err)
	}

	return nil
}

// Clear deletes every key in the bucket.
func (c *NATSKVCache) Clear(ctx context.Context) error {
	lister, err := c.kv.ListKeys(ctx)
	if err != nil {
		return fmt.Errorf("listing cache keys: %w", err)
	}
	defer func() { _ = lister.Stop() }()

	for key := range lister.Keys() {
		err = c.kv.Delete(ctx, key)
		if err != nil {
			return fmt.Errorf("deleting cache key: %w", err)
		}
	}

	return nil
}

// Has reports whether a live entry exists for key.
func (c *NATSKVCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Close releases the connection when the cache opened it.
func (c *NATSKVCache) Close() {
	closeIfOwned(c.conn, c.ownsConn)
}

// key maps arbitrary cache keys onto the characters NATS KV allows.
func (c *NATSKVCache) key(key string) string {
	sum := sha256.Sum256([]byte(c.keyPrefix + key))

	return hex.EncodeToString(sum[:])
}

func closeIfOwned(conn *nats.Conn, owned bool) {
	if owned && conn != nil {
		conn.Close()
	}
}
