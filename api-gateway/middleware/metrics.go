package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	gatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_gateway_requests_total",
			Help: "Gateway requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	gatewayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_gateway_request_duration_seconds",
			Help:    "Gateway request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	circuitState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "storefront_gateway_circuit_state",
			Help: "Circuit state per upstream (0 closed, 1 half-open, 2 open)",
		},
		[]string{"upstream"},
	)

	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_gateway_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

func init() {
	prometheus.MustRegister(gatewayRequests, gatewayDuration, circuitState, rateLimited)
}

// MetricsMiddleware records request counts and latency by matched route.
func MetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		if route == "" {
			route = "unmatched"
		}
		gatewayRequests.WithLabelValues(c.Method(), route, strconv.Itoa(c.Response().StatusCode())).Inc()
		gatewayDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// MetricsHandler exposes the Prometheus registry.
func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
