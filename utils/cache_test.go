package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewCache(rdb), mr
}

func TestCacheRoundTripAndTTL(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	type entry struct {
		Name string `json:"name"`
	}
	require.NoError(t, cache.SetCache(ctx, "products:list:a", entry{Name: "sofa"}, time.Minute))

	var got entry
	found, err := cache.GetCache(ctx, "products:list:a", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "sofa", got.Name)

	mr.FastForward(2 * time.Minute)
	found, err = cache.GetCache(ctx, "products:list:a", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheDeletePrefix(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	for _, k := range []string{"products:list:a", "products:list:b", "other:key"} {
		require.NoError(t, cache.SetCache(ctx, k, 1, time.Minute))
	}
	require.NoError(t, cache.DeletePrefix(ctx, "products:"))

	assert.False(t, mr.Exists("products:list:a"))
	assert.False(t, mr.Exists("products:list:b"))
	assert.True(t, mr.Exists("other:key"))
}

func TestNilCacheIsNoop(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	assert.Nil(t, NewCache(nil))
	assert.NoError(t, cache.SetCache(ctx, "k", 1, time.Minute))
	found, err := cache.GetCache(ctx, "k", new(int))
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.DeletePrefix(ctx, "k"))
}
