package config

import (
	"strings"
	"time"

	appconfig "github.com/tair/storefront/internal/config"
)

// UpstreamConfig describes the storefront API instances behind the gateway.
type UpstreamConfig struct {
	Name        string
	Instances   []string
	Timeout     time.Duration
	HealthCheck string
}

// RateLimitConfig is a per-client request budget.
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
}

// GatewayConfig holds the gateway configuration
type GatewayConfig struct {
	Port           string
	Mode           string
	Upstream       UpstreamConfig
	CacheTTL       time.Duration
	RateLimit      RateLimitConfig
	AllowedOrigins string
	Demo           appconfig.DemoConfig
}

// FromConfig derives the gateway settings from the storefront configuration.
func FromConfig(cfg *appconfig.Config) *GatewayConfig {
	origins := "*"
	if len(cfg.AllowedOrigins) > 0 {
		origins = strings.Join(cfg.AllowedOrigins, ",")
	}
	return &GatewayConfig{
		Port: cfg.GatewayPort,
		Mode: cfg.Catalog.Mode,
		Upstream: UpstreamConfig{
			Name:        "storefront-api",
			Instances:   cfg.Catalog.Upstreams,
			Timeout:     cfg.Catalog.Timeout,
			HealthCheck: "/api/categories",
		},
		CacheTTL: cfg.Catalog.CacheTTL,
		RateLimit: RateLimitConfig{
			MaxRequests: 100,
			Window:      time.Minute,
		},
		AllowedOrigins: origins,
		Demo:           cfg.Demo,
	}
}

// IsDemo reports whether the gateway serves the built-in catalog.
func (c *GatewayConfig) IsDemo() bool {
	return c.Mode == appconfig.CatalogDemo
}

