package proxy

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tair/storefront/api-gateway/config"
	"github.com/tair/storefront/api-gateway/loadbalancer"
	"github.com/tair/storefront/pkg/logger"
)

// hopHeaders are not forwarded in either direction.
var hopHeaders = map[string]bool{
	"connection":        true,
	"keep-alive":        true,
	"host":              true,
	"content-length":    true,
	"transfer-encoding": true,
	"upgrade":           true,
}

// ReverseProxy forwards requests to the storefront API instances.
type ReverseProxy struct {
	upstream config.UpstreamConfig
	client   *http.Client
	balancer *loadbalancer.RoundRobin
}

// NewReverseProxy creates a new reverse proxy
func NewReverseProxy(upstream config.UpstreamConfig) *ReverseProxy {
	return &ReverseProxy{
		upstream: upstream,
		balancer: loadbalancer.NewRoundRobin(upstream.Instances),
		client: &http.Client{
			Timeout:   upstream.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Balancer exposes the instance pool for stats and health checks.
func (p *ReverseProxy) Balancer() *loadbalancer.RoundRobin {
	return p.balancer
}

// ProxyRequest forwards the request. When an instance cannot be reached the
// next one is tried, each at most once.
func (p *ReverseProxy) ProxyRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	attempts := len(p.balancer.Servers())
	if attempts == 0 {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "No available instances for " + p.upstream.Name,
		})
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		server := p.balancer.Next()
		resp, err := p.forward(ctx, c, server)
		if err != nil {
			lastErr = err
			logger.Warn(ctx).
				Err(err).
				Str("target_url", server).
				Str("path", c.Path()).
				Msg("Upstream instance unreachable")
			continue
		}
		return p.respond(c, resp)
	}

	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
		"error":    "Failed to reach backend service",
		"upstream": p.upstream.Name,
		"details":  lastErr.Error(),
	})
}

func (p *ReverseProxy) forward(ctx context.Context, c *fiber.Ctx, server string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, c.Method(), targetURL(c, server), bytes.NewReader(c.Body()))
	if err != nil {
		return nil, err
	}

	c.Request().Header.VisitAll(func(key, value []byte) {
		k := string(key)
		if !hopHeaders[strings.ToLower(k)] {
			req.Header.Set(k, string(value))
		}
	})
	req.Header.Set("X-Forwarded-For", c.IP())
	req.Header.Set("X-Forwarded-Proto", c.Protocol())
	req.Header.Set("X-Forwarded-Host", c.Hostname())

	return p.client.Do(req)
}

func (p *ReverseProxy) respond(c *fiber.Ctx, resp *http.Response) error {
	defer resp.Body.Close()

	for key, values := range resp.Header {
		if hopHeaders[strings.ToLower(key)] {
			continue
		}
		for _, value := range values {
			c.Set(key, value)
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to read response",
		})
	}
	return c.Status(resp.StatusCode).Send(body)
}

// targetURL joins server with the original path and query.
func targetURL(c *fiber.Ctx, server string) string {
	u := strings.TrimRight(strings.TrimSpace(server), "/") + string(c.Request().URI().Path())
	if q := string(c.Request().URI().QueryString()); q != "" {
		u += "?" + q
	}
	return u
}
