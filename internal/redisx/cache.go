package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"time"
)

// Cache is a JSON read-through cache with tag-based invalidation. A nil Cache
// (or one without a client) always calls the loader.
type Cache struct {
	RDB *redis.Client
	Log *zap.Logger
}

func (c *Cache) logger() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}

// Remember returns the value cached under key, or loads it, stores it for ttl
// and indexes the entry under every tag. Redis failures degrade to a direct
// load; loader errors are returned as is and nothing is cached.
func Remember[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, tags []string, load func(context.Context) (T, error)) (T, error) {
	if c == nil || c.RDB == nil {
		return load(ctx)
	}
	k := fmt.Sprintf(KeyCache, key)

	b, err := c.RDB.Get(ctx, k).Bytes()
	switch {
	case err == nil:
		var v T
		if err := json.Unmarshal(b, &v); err == nil {
			return v, nil
		}
		c.logger().Warn("cache entry undecodable, reloading", zap.String("key", k))
	case !errors.Is(err, redis.Nil):
		c.logger().Warn("cache read failed", zap.String("key", k), zap.Error(err))
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	b, err = json.Marshal(v)
	if err != nil {
		return v, nil
	}

	pipe := c.RDB.TxPipeline()
	pipe.Set(ctx, k, b, ttl)
	for _, tag := range tags {
		pipe.SAdd(ctx, fmt.Sprintf(KeyCacheTag, tag), k)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger().Warn("cache write failed", zap.String("key", k), zap.Error(err))
	}
	return v, nil
}

// Invalidate drops every entry indexed under the given tags so the next read
// goes to the source.
func (c *Cache) Invalidate(ctx context.Context, tags ...string) error {
	if c == nil || c.RDB == nil {
		return nil
	}
	for _, tag := range tags {
		tk := fmt.Sprintf(KeyCacheTag, tag)
		keys, err := c.RDB.SMembers(ctx, tk).Result()
		if err != nil {
			return fmt.Errorf("invalidate %s: %w", tag, err)
		}
		keys = append(keys, tk)
		if err := c.RDB.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("invalidate %s: %w", tag, err)
		}
	}
	return nil
}
