package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/storefront/api-gateway/config"
	"github.com/tair/storefront/internal/catalog/demo"
	appconfig "github.com/tair/storefront/internal/config"
)

func demoConfig() *config.GatewayConfig {
	return &config.GatewayConfig{
		Mode:           appconfig.CatalogDemo,
		CacheTTL:       time.Minute,
		RateLimit:      config.RateLimitConfig{MaxRequests: 1000, Window: time.Minute},
		AllowedOrigins: "*",
		Upstream:       config.UpstreamConfig{Name: "storefront-api", HealthCheck: "/api/categories"},
	}
}

func newDemoApp(t *testing.T, cfg *config.GatewayConfig, rdb *redis.Client) *fiber.App {
	t.Helper()
	catalog, err := demo.NewCatalog()
	require.NoError(t, err)
	accounts := demo.NewAccounts("test-secret", time.Hour)
	require.NoError(t, accounts.SeedAdmin("admin@shop.local", "admin123"))
	return New(cfg, rdb, catalog, accounts)
}

func call(t *testing.T, app *fiber.App, method, path, body string, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(data) > 0 && data[0] == '{' {
		require.NoError(t, json.Unmarshal(data, &out))
	}
	return resp, out
}

func TestDemoCatalogRoutes(t *testing.T) {
	app := newDemoApp(t, demoConfig(), nil)

	resp, _ := call(t, app, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := call(t, app, http.MethodGet, "/api/products/vitamin-c-face-serum", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "vitamin-c-face-serum", body["slug"])

	resp, body = call(t, app, http.MethodGet, "/api/products/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Product not found", body["error"])

	resp, _ = call(t, app, http.MethodGet, "/api/subcategories?categoryId=x", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = call(t, app, http.MethodGet, "/api/search?q=serum", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotZero(t, body["totalResults"])

	resp, body = call(t, app, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])

	resp, _ = call(t, app, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDemoAuthRoutes(t *testing.T) {
	app := newDemoApp(t, demoConfig(), nil)

	resp, body := call(t, app, http.MethodPost, "/api/auth/login", `{"email":"ghost@x.com","password":"pw"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", body["message"])

	resp, body = call(t, app, http.MethodPost, "/api/auth/register", `{"firstName":"Asha","email":"asha@x.com","password":"pw"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, body["token"])

	resp, _ = call(t, app, http.MethodPost, "/api/auth/register", `{"firstName":"Asha","email":"asha@x.com","password":"pw"}`, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = call(t, app, http.MethodPost, "/api/admin/login", `{"email":"asha@x.com","password":"pw"}`, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Access denied. Admin privileges required.", body["message"])

	resp, _ = call(t, app, http.MethodPost, "/api/auth/login", `{"email":"","password":"pw"}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCacheInvalidationRequiresAdmin(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	app := newDemoApp(t, demoConfig(), rdb)

	resp, _ := call(t, app, http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))

	resp, _ = call(t, app, http.MethodGet, "/api/categories", "", nil)
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))

	resp, _ = call(t, app, http.MethodDelete, "/gateway/cache", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, body := call(t, app, http.MethodPost, "/api/auth/register", `{"firstName":"C","email":"c@x.com","password":"pw"}`, nil)
	resp, _ = call(t, app, http.MethodDelete, "/gateway/cache", "", map[string]string{
		"Authorization": "Bearer " + body["token"].(string),
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, body = call(t, app, http.MethodPost, "/api/admin/login", `{"email":"admin@shop.local","password":"admin123"}`, nil)
	resp, body = call(t, app, http.MethodDelete, "/gateway/cache", "", map[string]string{
		"Authorization": "Bearer " + body["token"].(string),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1.0, body["invalidated"])

	resp, _ = call(t, app, http.MethodGet, "/api/categories", "", nil)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
}

func TestLocalRateLimit(t *testing.T) {
	cfg := demoConfig()
	cfg.RateLimit = config.RateLimitConfig{MaxRequests: 2, Window: time.Hour}
	app := newDemoApp(t, cfg, nil)

	for i := 0; i < 2; i++ {
		resp, _ := call(t, app, http.MethodGet, "/health/live", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, body := call(t, app, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Rate limit exceeded", body["error"])
	assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))
}

func TestProxyModeOpensCircuit(t *testing.T) {
	var calls int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path == "/api/products" {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `[{"id":1,"slug":"a"}]`)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"message":"boom"}`)
	}))
	defer upstream.Close()

	cfg := demoConfig()
	cfg.Mode = appconfig.CatalogProxy
	cfg.Upstream.Instances = []string{upstream.URL}
	cfg.Upstream.Timeout = 5 * time.Second
	app := New(cfg, nil, nil, nil)

	resp, _ := call(t, app, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	for i := 0; i < 5; i++ {
		resp, _ = call(t, app, http.MethodGet, "/api/categories", "", nil)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	}
	before := atomic.LoadInt32(&calls)

	resp, body := call(t, app, http.MethodGet, "/api/categories", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "storefront-api", body["upstream"])
	assert.Equal(t, before, atomic.LoadInt32(&calls))
}

func TestProxyModeWithoutReachableInstance(t *testing.T) {
	cfg := demoConfig()
	cfg.Mode = appconfig.CatalogProxy
	cfg.Upstream.Instances = []string{"http://127.0.0.1:1"}
	cfg.Upstream.Timeout = time.Second
	app := New(cfg, nil, nil, nil)

	resp, body := call(t, app, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "Failed to reach backend service", body["error"])
}
