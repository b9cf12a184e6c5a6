// Package server assembles the gateway's fiber application.
package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"

	"github.com/tair/storefront/api-gateway/config"
	"github.com/tair/storefront/api-gateway/middleware"
	"github.com/tair/storefront/api-gateway/routes"
	"github.com/tair/storefront/internal/catalog/demo"
	"github.com/tair/storefront/pkg/logger"
)

// New builds the gateway app. In demo mode catalog and accounts must be set.
func New(cfg *config.GatewayConfig, redisClient *redis.Client, catalog *demo.Catalog, accounts *demo.Accounts) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Storefront Gateway",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  30 * time.Second,
		ErrorHandler: errorHandler,
	})

	breakers := middleware.NewCircuitBreakerManager(5, 30*time.Second)

	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.StructuredLoggingMiddleware())
	app.Use(middleware.MetricsMiddleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.AllowedOrigins,
		AllowMethods:  "GET,POST,PUT,DELETE,PATCH,OPTIONS,HEAD",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Request-Id, traceparent, tracestate",
		ExposeHeaders: "X-Request-Id, X-Trace-Id, X-Cache, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset",
		MaxAge:        86400,
	}))

	if accounts != nil {
		app.Use(middleware.OptionalAuthMiddleware(accounts))
	}

	var limiter middleware.Limiter
	if redisClient != nil {
		limiter = middleware.NewRedisLimiter(redisClient, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
	} else {
		logger.Logger.Warn().Msg("Redis not available - using per-process rate limiting")
		limiter = middleware.NewLocalLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
	}
	app.Use(middleware.RateLimitMiddleware(limiter, cfg.RateLimit.MaxRequests))

	if redisClient != nil {
		app.Use(middleware.CacheMiddleware(redisClient, middleware.DefaultCacheConfig(cfg.CacheTTL)))
	}
	if !cfg.IsDemo() {
		app.Use(middleware.CircuitBreakerMiddleware(breakers, cfg.Upstream.Name, "/api"))
	}
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))

	routes.SetupRoutes(app, cfg, routes.Deps{
		Redis:    redisClient,
		Breakers: breakers,
		Catalog:  catalog,
		Accounts: accounts,
	})
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":      err.Error(),
		"statusCode": code,
		"path":       c.Path(),
		"method":     c.Method(),
		"requestId":  c.GetRespHeader(fiber.HeaderXRequestID),
	})
}
