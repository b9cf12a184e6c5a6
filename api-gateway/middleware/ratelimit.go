package middleware

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/tair/storefront/pkg/logger"
)

// Limiter decides whether identifier may make another request.
type Limiter interface {
	Allow(ctx context.Context, identifier string) (allowed bool, remaining int, reset time.Time, err error)
}

// RedisLimiter is a sliding window limiter shared by every gateway instance.
type RedisLimiter struct {
	redis       *redis.Client
	maxRequests int
	window      time.Duration
}

// NewRedisLimiter creates a new Redis-based rate limiter
func NewRedisLimiter(redisClient *redis.Client, maxRequests int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{redis: redisClient, maxRequests: maxRequests, window: window}
}

// Allow checks if a request should be allowed
func (rl *RedisLimiter) Allow(ctx context.Context, identifier string) (bool, int, time.Time, error) {
	key := "storefront:ratelimit:" + identifier
	now := time.Now()
	windowStart := now.Add(-rl.window)

	pipe := rl.redis.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	countCmd := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: now.UnixNano(),
	})
	pipe.Expire(ctx, key, rl.window+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, err
	}

	count := int(countCmd.Val())
	remaining := rl.maxRequests - count - 1
	if remaining < 0 {
		remaining = 0
	}
	return count < rl.maxRequests, remaining, now.Add(rl.window), nil
}

// LocalLimiter is a per-process token bucket per identifier, used when
// Redis is unavailable.
type LocalLimiter struct {
	limit    rate.Limit
	burst    int
	window   time.Duration
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewLocalLimiter creates an in-process limiter used when Redis is unavailable
func NewLocalLimiter(maxRequests int, window time.Duration) *LocalLimiter {
	return &LocalLimiter{
		limit:    rate.Limit(float64(maxRequests) / window.Seconds()),
		burst:    maxRequests,
		window:   window,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *LocalLimiter) Allow(_ context.Context, identifier string) (bool, int, time.Time, error) {
	l.mu.Lock()
	lim, ok := l.limiters[identifier]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[identifier] = lim
	}
	l.mu.Unlock()

	now := time.Now()
	allowed := lim.AllowN(now, 1)
	remaining := int(lim.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return allowed, remaining, now.Add(l.window), nil
}

// RateLimitMiddleware rejects callers over budget with 429. Authenticated
// callers are limited per user, others per IP. Limiter errors let the
// request through.
func RateLimitMiddleware(limiter Limiter, maxRequests int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identifier := c.IP()
		if userID, ok := c.Locals(LocalUserID).(string); ok && userID != "" {
			identifier = "user:" + userID
		}

		allowed, remaining, reset, err := limiter.Allow(c.UserContext(), identifier)
		if err != nil {
			logger.Error(c.UserContext()).
				Err(err).
				Str("identifier", identifier).
				Msg("Rate limiter error")
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if !allowed {
			rateLimited.Inc()
			logger.Warn(c.UserContext()).
				Str("identifier", identifier).
				Int("limit", maxRequests).
				Msg("Rate limit exceeded")

			retry := time.Until(reset)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Rate limit exceeded",
				"message":     fmt.Sprintf("Too many requests. Try again in %v", retry.Round(time.Second)),
				"retry_after": retry.Seconds(),
			})
		}
		return c.Next()
	}
}
