package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/tair/storefront/internal/catalog/query"
)

// Search handles GET /state/{ns}/search?q=. A non-blank query is also
// recorded as a recent search of the namespace.
func (h *StateHandler) Search(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	if h.catalog == nil {
		respondError(w, http.StatusServiceUnavailable, "Catalog unavailable")
		return
	}

	q := r.URL.Query().Get("q")
	results, err := h.catalog.Search(r.Context(), q)
	if err != nil {
		upstreamFailed(w, r, err)
		return
	}
	if strings.TrimSpace(q) != "" {
		if err := c.Recent.Record(r.Context(), q); err != nil {
			storeFailed(w, r, err, "Failed to record search")
			return
		}
	}
	respondJSON(w, http.StatusOK, results)
}

// CategoryPage handles GET /catalog/categories/{slug}?subcategory=
func (h *StateHandler) CategoryPage(w http.ResponseWriter, r *http.Request) {
	if h.pages == nil {
		respondError(w, http.StatusServiceUnavailable, "Catalog unavailable")
		return
	}

	sub := r.URL.Query().Get("subcategory")
	if sub == "" {
		sub = query.AllSubcategories
	}
	page, err := h.pages.Handle(r.Context(), query.CategoryProductsQuery{
		CategorySlug: mux.Vars(r)["slug"],
		Subcategory:  sub,
	})
	if errors.Is(err, query.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Category not found")
		return
	}
	if err != nil {
		upstreamFailed(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// ListRecentSearches handles GET /state/{ns}/recent-searches
func (h *StateHandler) ListRecentSearches(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"searches": c.Recent.List(r.Context()),
	})
}

// RecordRecentSearch handles POST /state/{ns}/recent-searches
func (h *StateHandler) RecordRecentSearch(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}

	var req struct {
		Term string `json:"term"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := c.Recent.Record(r.Context(), req.Term); err != nil {
		storeFailed(w, r, err, "Failed to record search")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"searches": c.Recent.List(r.Context()),
	})
}

// ClearRecentSearches handles DELETE /state/{ns}/recent-searches
func (h *StateHandler) ClearRecentSearches(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	if err := c.Recent.Clear(r.Context()); err != nil {
		storeFailed(w, r, err, "Failed to clear searches")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
