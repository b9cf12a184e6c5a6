package http

import (
	"net/http"

	catalog "github.com/tair/storefront/internal/catalog/domain"
	"github.com/tair/storefront/internal/state"
)

// WishlistView is the saved products plus what they save against MRP.
type WishlistView struct {
	Items   []catalog.Product `json:"items"`
	Count   int               `json:"count"`
	Savings float64           `json:"savings"`
}

func wishlistView(r *http.Request, c *state.Client) WishlistView {
	items := c.Wishlist.Items(r.Context())
	return WishlistView{
		Items:   items,
		Count:   len(items),
		Savings: c.Wishlist.Savings(r.Context()).InexactFloat64(),
	}
}

type productRequest struct {
	Product *catalog.Product `json:"product"`
}

func decodeProduct(w http.ResponseWriter, r *http.Request) (catalog.Product, bool) {
	var req productRequest
	if !decode(w, r, &req) {
		return catalog.Product{}, false
	}
	if req.Product == nil {
		respondError(w, http.StatusBadRequest, "product is required")
		return catalog.Product{}, false
	}
	return *req.Product, true
}

// GetWishlist handles GET /state/{ns}/wishlist
func (h *StateHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, wishlistView(r, c))
}

// AddToWishlist handles POST /state/{ns}/wishlist/items
func (h *StateHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	product, ok := decodeProduct(w, r)
	if !ok {
		return
	}
	if err := c.Wishlist.Add(r.Context(), product); err != nil {
		storeFailed(w, r, err, "Failed to update wishlist")
		return
	}
	respondJSON(w, http.StatusOK, wishlistView(r, c))
}

// ToggleWishlist handles POST /state/{ns}/wishlist/toggle
func (h *StateHandler) ToggleWishlist(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	product, ok := decodeProduct(w, r)
	if !ok {
		return
	}
	added, err := c.Wishlist.Toggle(r.Context(), product)
	if err != nil {
		storeFailed(w, r, err, "Failed to update wishlist")
		return
	}
	respondJSON(w, http.StatusOK, struct {
		Added bool `json:"added"`
		WishlistView
	}{Added: added, WishlistView: wishlistView(r, c)})
}

// RemoveFromWishlist handles DELETE /state/{ns}/wishlist/items/{productId}
func (h *StateHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}
	if err := c.Wishlist.Remove(r.Context(), productID); err != nil {
		storeFailed(w, r, err, "Failed to update wishlist")
		return
	}
	respondJSON(w, http.StatusOK, wishlistView(r, c))
}

// ClearWishlist handles DELETE /state/{ns}/wishlist
func (h *StateHandler) ClearWishlist(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	if err := c.Wishlist.Clear(r.Context()); err != nil {
		storeFailed(w, r, err, "Failed to clear wishlist")
		return
	}
	respondJSON(w, http.StatusOK, wishlistView(r, c))
}
