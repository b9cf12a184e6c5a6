package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/storefront/pkg/logger"
)

const cacheKeyPrefix = "storefront:catalog:"

// Cache keeps decoded catalog responses in Redis for a fixed TTL. A nil
// *Cache caches nothing.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache returns a cache over rdb. A nil client or zero ttl disables caching.
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	if rdb == nil || ttl <= 0 {
		return nil
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

func (c *Cache) get(ctx context.Context, path string, out any) bool {
	if c == nil {
		return false
	}
	data, err := c.rdb.Get(ctx, cacheKeyPrefix+path).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Debug(ctx).Err(err).Str("path", path).Msg("Catalog cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false
	}
	logger.Debug(ctx).Str("path", path).Msg("Catalog cache hit")
	return true
}

func (c *Cache) set(ctx context.Context, path string, v any) {
	if c == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKeyPrefix+path, data, c.ttl).Err(); err != nil {
		logger.Warn(ctx).Err(err).Str("path", path).Msg("Failed to cache catalog response")
	}
}

// Invalidate drops every cached catalog response.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	iter := c.rdb.Scan(ctx, 0, cacheKeyPrefix+"*", 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return err
	}
	logger.Info(ctx).Int("count", len(keys)).Msg("Catalog cache invalidated")
	return nil
}
