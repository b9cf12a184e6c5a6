package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tair/storefront/pkg/logger"
)

const cacheKeyPrefix = "storefront:gateway:cache:"

// CacheConfig holds cache configuration
type CacheConfig struct {
	DefaultTTL       time.Duration
	CacheableMethods []string
	CacheableStatus  []int
	// Paths with these prefixes are never cached.
	SkipPrefixes []string
}

// DefaultCacheConfig caches successful catalog reads for ttl.
func DefaultCacheConfig(ttl time.Duration) CacheConfig {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return CacheConfig{
		DefaultTTL:       ttl,
		CacheableMethods: []string{fiber.MethodGet, fiber.MethodHead},
		CacheableStatus:  []int{fiber.StatusOK},
		SkipPrefixes:     []string{"/api/auth", "/api/admin", "/health", "/metrics"},
	}
}

// CacheMiddleware serves repeated GET responses from Redis.
func CacheMiddleware(redisClient *redis.Client, config CacheConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if redisClient == nil || !contains(config.CacheableMethods, c.Method()) || hasAnyPrefix(c.Path(), config.SkipPrefixes) {
			return c.Next()
		}

		ctx := c.UserContext()
		cacheKey := generateCacheKey(c)

		cached, err := redisClient.Get(ctx, cacheKey).Bytes()
		if err == nil && len(cached) > 0 {
			logger.Debug(ctx).
				Str("path", c.Path()).
				Str("cache_key", cacheKey).
				Msg("Cache hit")

			c.Set("X-Cache", "HIT")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Send(cached)
		}

		err = c.Next()

		status := c.Response().StatusCode()
		if err == nil && containsInt(config.CacheableStatus, status) {
			body := append([]byte(nil), c.Response().Body()...)
			if setErr := redisClient.Set(ctx, cacheKey, body, config.DefaultTTL).Err(); setErr != nil {
				logger.Warn(ctx).
					Err(setErr).
					Str("cache_key", cacheKey).
					Msg("Failed to cache response")
			}
			c.Set("X-Cache", "MISS")
		}
		return err
	}
}

// generateCacheKey hashes method, path, query and credentials.
func generateCacheKey(c *fiber.Ctx) string {
	parts := fmt.Sprintf("%s:%s:%s:%s",
		c.Method(),
		c.Path(),
		string(c.Request().URI().QueryString()),
		c.Get(fiber.HeaderAuthorization),
	)
	hash := sha256.Sum256([]byte(parts))
	return cacheKeyPrefix + hex.EncodeToString(hash[:])
}

// InvalidateCache deletes every cached gateway response and reports how
// many entries were dropped.
func InvalidateCache(ctx context.Context, redisClient *redis.Client) (int, error) {
	if redisClient == nil {
		return 0, nil
	}
	iter := redisClient.Scan(ctx, 0, cacheKeyPrefix+"*", 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := redisClient.Del(ctx, keys...).Err(); err != nil {
		return 0, err
	}

	logger.Info(ctx).
		Int("count", len(keys)).
		Msg("Cache invalidated")
	return len(keys), nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, n := range list {
		if n == v {
			return true
		}
	}
	return false
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
