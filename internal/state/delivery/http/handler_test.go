package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/storefront/internal/cart"
	"github.com/tair/storefront/internal/catalog/demo"
	"github.com/tair/storefront/internal/notify"
	"github.com/tair/storefront/internal/persist"
	"github.com/tair/storefront/internal/state"
	"github.com/tair/storefront/internal/storage"
)

const serumJSON = `{"id":1,"name":"Vitamin C Serum","slug":"vitamin-c-serum","price":"₹350","originalPrice":"450"}`

type testServer struct {
	*httptest.Server
	registry *state.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	accounts := demo.NewAccounts("test-secret", time.Hour)
	require.NoError(t, accounts.SeedAdmin("admin@shop.local", "admin123"))
	catalog, err := demo.NewCatalog()
	require.NoError(t, err)

	scope := persist.Scope{Prefix: "test", Backend: storage.NewMemory(), Notifier: notify.NewBus()}
	registry := state.NewRegistry(scope, demo.NewLocalAuth(accounts), nil)

	h := NewStateHandler(registry, catalog, []string{"*"})
	h.ping = time.Hour
	srv := httptest.NewServer(NewRouter(h, []string{"*"}))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, registry: registry}
}

func (s *testServer) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func TestCartRoutes(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/state/tab-1/cart/items", `{"product":`+serumJSON+`,"quantity":2}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2.0, body["count"])
	assert.Equal(t, 700.0, body["subtotal"])
	quote := body["quote"].(map[string]any)
	assert.Equal(t, 0.0, quote["shipping"])
	assert.Equal(t, 700.0, quote["total"])

	status, body = s.do(t, http.MethodPut, "/state/tab-1/cart/items/1", `{"quantity":1}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1.0, body["count"])
	assert.Equal(t, 99.0, body["quote"].(map[string]any)["shipping"])

	status, body = s.do(t, http.MethodGet, "/state/tab-2/cart", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0.0, body["count"])
	assert.Empty(t, body["items"])

	status, body = s.do(t, http.MethodDelete, "/state/tab-1/cart/items/1", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0.0, body["count"])
}

func TestCartQuantitiesAreFloored(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/state/tab-1/cart/items", `{"product":`+serumJSON+`,"quantity":2.7}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2.0, body["count"])

	status, body = s.do(t, http.MethodPut, "/state/tab-1/cart/items/1", `{"quantity":3.9}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 3.0, body["count"])

	status, body = s.do(t, http.MethodPut, "/state/tab-1/cart/items/1", `{"quantity":0.5}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0.0, body["count"])
}

type unreachableBackend struct{}

func (unreachableBackend) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, storage.ErrUnavailable
}

func (unreachableBackend) Set(context.Context, string, []byte) error {
	return storage.ErrUnavailable
}

func (unreachableBackend) Delete(context.Context, string) error {
	return storage.ErrUnavailable
}

func TestStoreUnavailable(t *testing.T) {
	catalog, err := demo.NewCatalog()
	require.NoError(t, err)
	accounts := demo.NewAccounts("test-secret", time.Hour)

	scope := persist.Scope{Prefix: "test", Backend: unreachableBackend{}, Notifier: notify.NewBus()}
	registry := state.NewRegistry(scope, demo.NewLocalAuth(accounts), nil)
	h := NewStateHandler(registry, catalog, []string{"*"})
	h.ping = time.Hour
	srv := httptest.NewServer(NewRouter(h, []string{"*"}))
	t.Cleanup(srv.Close)
	s := &testServer{Server: srv, registry: registry}

	status, body := s.do(t, http.MethodGet, "/state/tab-1/cart", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0.0, body["count"])

	status, body = s.do(t, http.MethodPost, "/state/tab-1/cart/items", `{"product":`+serumJSON+`,"quantity":1}`)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, false, body["success"])
}

func TestBadRequests(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"invalid namespace", http.MethodGet, "/state/bad%20ns/cart", "", http.StatusBadRequest},
		{"invalid product id", http.MethodDelete, "/state/tab/cart/items/abc", "", http.StatusBadRequest},
		{"missing product", http.MethodPost, "/state/tab/cart/items", `{"quantity":1}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/state/tab/wishlist/items", `{`, http.StatusBadRequest},
		{"order without id", http.MethodPost, "/state/tab/orders", `{"total":1}`, http.StatusBadRequest},
		{"unknown order", http.MethodGet, "/state/tab/orders/nope", "", http.StatusNotFound},
		{"unknown category", http.MethodGet, "/catalog/categories/nope", "", http.StatusNotFound},
		{"empty checkout", http.MethodPost, "/state/tab/checkout", "", http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestWishlistRoutes(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/state/w/wishlist/toggle", `{"product":`+serumJSON+`}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["added"])
	assert.Equal(t, 100.0, body["savings"])

	status, body = s.do(t, http.MethodPost, "/state/w/wishlist/toggle", `{"product":`+serumJSON+`}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["added"])
	assert.Equal(t, 0.0, body["count"])
}

func TestSessionAndCheckout(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/state/tab/session/register",
		`{"firstName":"Asha","email":"asha@x.com","password":"pw","confirmPassword":"pw"}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, true, body["isAuthenticated"])
	assert.Equal(t, "Asha", body["displayName"])
	assert.NotEmpty(t, body["expiresAt"])

	status, body = s.do(t, http.MethodPost, "/state/tab/session/admin-login", `{"email":"asha@x.com","password":"pw"}`)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Contains(t, body["error"], "Access denied")

	status, _ = s.do(t, http.MethodPost, "/state/tab/cart/items", `{"product":`+serumJSON+`}`)
	require.Equal(t, http.StatusOK, status)

	status, body = s.do(t, http.MethodPost, "/state/tab/checkout", "")
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "asha@x.com", body["userEmail"])
	assert.Equal(t, "Asha", body["name"])
	assert.Equal(t, 449.0, body["total"])
	id := body["id"].(string)

	status, body = s.do(t, http.MethodGet, "/state/tab/orders?email=ASHA@x.com", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1.0, body["count"])

	status, body = s.do(t, http.MethodGet, "/state/"+state.BackOfficeNamespace+"/orders/"+id, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, id, body["id"])

	status, body = s.do(t, http.MethodDelete, "/state/tab/session", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["isAuthenticated"])

	status, body = s.do(t, http.MethodPost, "/state/tab/session/login", `{"email":"asha@x.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body["error"], "Invalid credentials")
}

func TestSearchRecordsRecentSearches(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/state/tab/search?q=serum", "")
	require.Equal(t, http.StatusOK, status)
	assert.NotZero(t, body["totalResults"])

	status, _ = s.do(t, http.MethodGet, "/state/tab/search?q=%20%20", "")
	require.Equal(t, http.StatusOK, status)

	status, body = s.do(t, http.MethodPost, "/state/tab/recent-searches", `{"term":"toner"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{"toner", "serum"}, body["searches"])

	status, _ = s.do(t, http.MethodDelete, "/state/tab/recent-searches", "")
	require.Equal(t, http.StatusNoContent, status)

	_, body = s.do(t, http.MethodGet, "/state/tab/recent-searches", "")
	assert.Empty(t, body["searches"])
}

func TestCategoryPage(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/catalog/categories/skincare?subcategory=serums", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "skincare", body["category"].(map[string]any)["slug"])
	for _, p := range body["products"].([]any) {
		assert.Equal(t, "serums", p.(map[string]any)["subcategory"])
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
}

func TestEventsStream(t *testing.T) {
	s := newTestServer(t)
	url := "ws" + strings.TrimPrefix(s.URL, "http") + "/state/live/events"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	received := make(chan ChangeEvent, 1)
	go func() {
		var ev ChangeEvent
		if err := conn.ReadJSON(&ev); err == nil {
			received <- ev
		}
	}()

	c, err := s.registry.Client("live")
	require.NoError(t, err)

	// The server subscribes right after the handshake; keep writing until
	// the first event arrives.
	var ev ChangeEvent
	require.Eventually(t, func() bool {
		_ = c.Cart.Clear(context.Background())
		select {
		case ev = <-received:
			return true
		case <-time.After(20 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, cart.SlotName, ev.Topic)
	assert.Equal(t, c.Key(cart.SlotName), ev.Key)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://shop.example.com"})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://shop.example.com")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}
