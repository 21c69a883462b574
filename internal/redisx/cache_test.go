package redisx

import (
	"context"
	"errors"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return &Cache{RDB: rdb}, mr
}

func TestRememberCachesUntilInvalidated(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"a", "b"}, nil
	}

	v, err := Remember(ctx, c, "list", time.Minute, []string{TagProducts}, load)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, v)

	_, err = Remember(ctx, c, "list", time.Minute, []string{TagProducts}, load)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	require.NoError(t, c.Invalidate(ctx, TagProducts))
	_, err = Remember(ctx, c, "list", time.Minute, []string{TagProducts}, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRememberExpires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	calls := 0
	load := func(context.Context) (int, error) { calls++; return calls, nil }

	_, _ = Remember(ctx, c, "n", 5*time.Minute, nil, load)
	mr.FastForward(6 * time.Minute)
	v, err := Remember(ctx, c, "n", 5*time.Minute, nil, load)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestInvalidateLeavesOtherTags(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	cats := 0
	loadCats := func(context.Context) (string, error) { cats++; return "c", nil }

	_, _ = Remember(ctx, c, "cat:ao", time.Hour, []string{TagCategories}, loadCats)
	require.NoError(t, c.Invalidate(ctx, TagAllProducts, TagProducts))
	_, _ = Remember(ctx, c, "cat:ao", time.Hour, []string{TagCategories}, loadCats)
	assert.Equal(t, 1, cats)
}

func TestRememberDoesNotCacheErrors(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	boom := errors.New("boom")
	_, err := Remember(ctx, c, "x", time.Minute, nil, func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, err := Remember(ctx, c, "x", time.Minute, nil, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestNilCacheLoadsDirectly(t *testing.T) {
	var c *Cache
	v, err := Remember(context.Background(), c, "k", time.Minute, nil, func(context.Context) (string, error) { return "direct", nil })
	require.NoError(t, err)
	assert.Equal(t, "direct", v)
	assert.NoError(t, c.Invalidate(context.Background(), TagProducts))
}
