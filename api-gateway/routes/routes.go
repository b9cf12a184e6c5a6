package routes

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tair/storefront/api-gateway/config"
	"github.com/tair/storefront/api-gateway/health"
	"github.com/tair/storefront/api-gateway/middleware"
	"github.com/tair/storefront/api-gateway/proxy"
	"github.com/tair/storefront/internal/catalog/demo"
)

// RouteDefinition describes one route group for the overview endpoint.
type RouteDefinition struct {
	Prefix       string `json:"prefix"`
	Description  string `json:"description"`
	RequireAuth  bool   `json:"require_auth"`
	RequireAdmin bool   `json:"require_admin"`
}

// Routes lists what the gateway serves.
var Routes = []RouteDefinition{
	{Prefix: "/api/products", Description: "Product listing and detail"},
	{Prefix: "/api/categories", Description: "Categories"},
	{Prefix: "/api/subcategories", Description: "Subcategories by category"},
	{Prefix: "/api/search", Description: "Product and category search"},
	{Prefix: "/api/auth", Description: "Customer login and registration"},
	{Prefix: "/api/admin/login", Description: "Back office login"},
	{Prefix: "/gateway/cache", Description: "Response cache invalidation", RequireAuth: true, RequireAdmin: true},
	{Prefix: "/health", Description: "Liveness and readiness"},
	{Prefix: "/metrics", Description: "Prometheus metrics"},
}

// Deps are the collaborators the routes need. Catalog and Accounts are set
// in demo mode only; Redis may be nil.
type Deps struct {
	Redis    *redis.Client
	Breakers *middleware.CircuitBreakerManager
	Catalog  *demo.Catalog
	Accounts *demo.Accounts
}

// SetupRoutes registers health, overview, metrics and the /api surface.
func SetupRoutes(app *fiber.App, cfg *config.GatewayConfig, deps Deps) {
	var (
		reverseProxy *proxy.ReverseProxy
		instances    []string
	)
	if !cfg.IsDemo() {
		reverseProxy = proxy.NewReverseProxy(cfg.Upstream)
		instances = cfg.Upstream.Instances
	}
	checker := health.NewChecker(cfg.Mode, instances, cfg.Upstream.HealthCheck)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(checker.QuickCheck())
	})
	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})
	app.Get("/health/ready", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		report := checker.CheckAll(ctx)
		status := fiber.StatusOK
		if report.Status == health.StatusUnhealthy {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(report)
	})
	app.Get("/metrics", middleware.MetricsHandler())

	app.Get("/", func(c *fiber.Ctx) error {
		overview := fiber.Map{
			"message": "Storefront Gateway",
			"mode":    cfg.Mode,
			"routes":  Routes,
		}
		if reverseProxy != nil {
			overview["load_balancer"] = reverseProxy.Balancer().Stats()
		}
		if deps.Breakers != nil {
			overview["circuit_breakers"] = deps.Breakers.Stats()
		}
		return c.JSON(overview)
	})

	if deps.Accounts != nil {
		app.Delete("/gateway/cache",
			middleware.AuthMiddleware(deps.Accounts),
			middleware.AdminMiddleware(),
			func(c *fiber.Ctx) error {
				n, err := middleware.InvalidateCache(c.UserContext(), deps.Redis)
				if err != nil {
					return fiber.NewError(fiber.StatusInternalServerError, "Failed to invalidate cache")
				}
				return c.JSON(fiber.Map{"invalidated": n})
			})
	}

	if cfg.IsDemo() {
		RegisterDemoRoutes(app.Group("/api"), deps.Catalog, deps.Accounts)
		return
	}
	app.All("/api/*", reverseProxy.ProxyRequest)
}
