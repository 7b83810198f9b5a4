package openstack_test

import (
	"context"
	"testing"
	"time"

	"github.com/fivetwenty-io/ostack/pkg/openstack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const computeVersions = `{"min":"2.1","max":"2.96"}`

func versionEntry(ttl time.Duration) *openstack.CacheEntry {
	entry := &openstack.CacheEntry{Data: []byte(computeVersions)}
	if ttl != 0 {
		entry.ExpiresAt = time.Now().Add(ttl)
	}

	return entry
}

func TestMemoryCache_Get(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entry   *openstack.CacheEntry
		wantErr error
	}{
		{"live", versionEntry(time.Hour), nil},
		{"no expiry", versionEntry(0), nil},
		{"expired", versionEntry(-time.Second), openstack.ErrCacheExpired},
		{"missing", nil, openstack.ErrCacheKeyNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cache := openstack.NewMemoryCache(4)
			ctx := context.Background()

			if tt.entry != nil {
				require.NoError(t, cache.Set(ctx, "version:compute", tt.entry))
			}

			got, err := cache.Get(ctx, "version:compute")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.False(t, cache.Has(ctx, "version:compute"))
				assert.Zero(t, cache.Len(), "expired entries are dropped on read")

				return
			}

			require.NoError(t, err)
			assert.JSONEq(t, computeVersions, string(got.Data))
		})
	}
}

func TestMemoryCache_ReturnsCopies(t *testing.T) {
	t.Parallel()

	cache := openstack.NewMemoryCache(4)
	ctx := context.Background()

	entry := versionEntry(time.Hour)
	entry.ETag = `"v1"`
	require.NoError(t, cache.Set(ctx, "version:compute", entry))

	entry.Data[0] = '['

	got, err := cache.Get(ctx, "version:compute")
	require.NoError(t, err)
	assert.Equal(t, `"v1"`, got.ETag)

	got.Data[0] = '['

	again, err := cache.Get(ctx, "version:compute")
	require.NoError(t, err)
	assert.JSONEq(t, computeVersions, string(again.Data))
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	cache := openstack.NewMemoryCache(2)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "version:compute", versionEntry(0)))
	require.NoError(t, cache.Set(ctx, "version:network", versionEntry(0)))

	_, err := cache.Get(ctx, "version:compute")
	require.NoError(t, err)

	require.NoError(t, cache.Set(ctx, "version:image", versionEntry(0)))

	assert.Equal(t, 2, cache.Len())
	assert.True(t, cache.Has(ctx, "version:compute"))
	assert.False(t, cache.Has(ctx, "version:network"))
	assert.True(t, cache.Has(ctx, "version:image"))

	require.NoError(t, cache.Set(ctx, "version:image", versionEntry(time.Hour)))
	assert.Equal(t, 2, cache.Len(), "overwriting does not evict")
}

func TestMemoryCache_DeleteClearCleanup(t *testing.T) {
	t.Parallel()

	cache := openstack.NewMemoryCache(0)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "version:compute", versionEntry(time.Hour)))
	require.NoError(t, cache.Set(ctx, "version:dns", versionEntry(-time.Minute)))
	require.NoError(t, cache.Set(ctx, "version:image", versionEntry(time.Hour)))

	cache.Cleanup()
	assert.Equal(t, 2, cache.Len())

	require.NoError(t, cache.Delete(ctx, "version:compute"))
	require.NoError(t, cache.Delete(ctx, "version:compute"))
	assert.False(t, cache.Has(ctx, "version:compute"))
	assert.True(t, cache.Has(ctx, "version:image"))

	require.NoError(t, cache.Clear(ctx))
	assert.Zero(t, cache.Len())
}

func TestStoreBytesAndLoadBytes(t *testing.T) {
	t.Parallel()

	cache := openstack.NewMemoryCache(10)
	ctx := context.Background()

	require.NoError(t, openstack.StoreBytes(ctx, cache, "version:compute", []byte(computeVersions), time.Hour))

	data, err := openstack.LoadBytes(ctx, cache, "version:compute")
	require.NoError(t, err)
	assert.JSONEq(t, computeVersions, string(data))

	entry, err := cache.Get(ctx, "version:compute")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), entry.ExpiresAt, time.Minute)

	require.NoError(t, openstack.StoreBytes(ctx, cache, "version:network", []byte("{}"), 0))

	entry, err = cache.Get(ctx, "version:network")
	require.NoError(t, err)
	assert.True(t, entry.ExpiresAt.IsZero())

	_, err = openstack.LoadBytes(ctx, cache, "version:dns")
	require.ErrorIs(t, err, openstack.ErrCacheKeyNotFound)
}
