package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/tair/storefront/internal/api"
	catalog "github.com/tair/storefront/internal/catalog/domain"
	"github.com/tair/storefront/internal/catalog/query"
	"github.com/tair/storefront/internal/state"
	"github.com/tair/storefront/pkg/logger"
)

// Catalog is the product source behind search and category pages.
type Catalog interface {
	query.Source
	Search(ctx context.Context, q string) (catalog.SearchResults, error)
}

// StateHandler serves the stores of every client namespace over HTTP.
type StateHandler struct {
	registry *state.Registry
	catalog  Catalog
	pages    *query.CategoryProductsHandler
	upgrader websocket.Upgrader
	ping     time.Duration
}

// NewStateHandler builds the handler. catalog may be nil, in which case the
// search and category routes answer 503.
func NewStateHandler(registry *state.Registry, source Catalog, allowedOrigins []string) *StateHandler {
	h := &StateHandler{
		registry: registry,
		catalog:  source,
		ping:     30 * time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
	if source != nil {
		h.pages = query.NewCategoryProductsHandler(source)
	}
	return h
}

// Response is the error envelope.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware wraps handlers with Prometheus metrics
func (h *StateHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
		requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
	}
}

// RegisterRoutes registers all state routes
func (h *StateHandler) RegisterRoutes(router *mux.Router) {
	route := func(path string, fn http.HandlerFunc, method string) {
		router.HandleFunc(path, h.metricsMiddleware(path, fn)).Methods(method)
	}

	// Cart
	route("/state/{ns}/cart", h.GetCart, http.MethodGet)
	route("/state/{ns}/cart", h.ClearCart, http.MethodDelete)
	route("/state/{ns}/cart/items", h.AddToCart, http.MethodPost)
	route("/state/{ns}/cart/items/{productId}", h.UpdateCartQuantity, http.MethodPut)
	route("/state/{ns}/cart/items/{productId}", h.RemoveFromCart, http.MethodDelete)

	// Wishlist
	route("/state/{ns}/wishlist", h.GetWishlist, http.MethodGet)
	route("/state/{ns}/wishlist", h.ClearWishlist, http.MethodDelete)
	route("/state/{ns}/wishlist/items", h.AddToWishlist, http.MethodPost)
	route("/state/{ns}/wishlist/items/{productId}", h.RemoveFromWishlist, http.MethodDelete)
	route("/state/{ns}/wishlist/toggle", h.ToggleWishlist, http.MethodPost)

	// Orders and checkout
	route("/state/{ns}/orders", h.ListOrders, http.MethodGet)
	route("/state/{ns}/orders", h.AddOrder, http.MethodPost)
	route("/state/{ns}/orders", h.ClearOrders, http.MethodDelete)
	route("/state/{ns}/orders/query", h.QueryOrders, http.MethodGet)
	route("/state/{ns}/orders/{id}", h.GetOrder, http.MethodGet)
	route("/state/{ns}/checkout/quote", h.GetQuote, http.MethodGet)
	route("/state/{ns}/checkout", h.PlaceOrder, http.MethodPost)

	// Session
	route("/state/{ns}/session", h.GetSession, http.MethodGet)
	route("/state/{ns}/session", h.Logout, http.MethodDelete)
	route("/state/{ns}/session/login", h.Login, http.MethodPost)
	route("/state/{ns}/session/register", h.Register, http.MethodPost)
	route("/state/{ns}/session/admin-login", h.AdminLogin, http.MethodPost)

	// Search and recent searches
	route("/state/{ns}/search", h.Search, http.MethodGet)
	route("/state/{ns}/recent-searches", h.ListRecentSearches, http.MethodGet)
	route("/state/{ns}/recent-searches", h.RecordRecentSearch, http.MethodPost)
	route("/state/{ns}/recent-searches", h.ClearRecentSearches, http.MethodDelete)

	// Catalog pages
	route("/catalog/categories/{slug}", h.CategoryPage, http.MethodGet)

	// The change stream hijacks the connection, so it skips the metrics writer.
	router.HandleFunc("/state/{ns}/events", h.Events).Methods(http.MethodGet)
}

// client resolves the {ns} path variable, answering 400 when it is invalid.
func (h *StateHandler) client(w http.ResponseWriter, r *http.Request) (*state.Client, bool) {
	c, err := h.registry.Client(mux.Vars(r)["ns"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid namespace")
		return nil, false
	}
	return c, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// storeFailed reports a failed persisted write.
func storeFailed(w http.ResponseWriter, r *http.Request, err error, msg string) {
	logger.Error(r.Context()).Err(err).Msg(msg)
	respondError(w, http.StatusServiceUnavailable, msg)
}

// upstreamFailed relays an API failure with its own status and body text.
func upstreamFailed(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		respondError(w, apiErr.Status, apiErr.Error())
		return
	}
	logger.Error(r.Context()).Err(err).Msg("Upstream request failed")
	respondError(w, http.StatusBadGateway, err.Error())
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, Response{Success: false, Error: message})
}
