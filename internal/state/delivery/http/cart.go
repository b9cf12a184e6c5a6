package http

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	cartdomain "github.com/tair/storefront/internal/cart/domain"
	catalog "github.com/tair/storefront/internal/catalog/domain"
	"github.com/tair/storefront/internal/checkout"
	"github.com/tair/storefront/internal/state"
)

// QuoteView is a checkout.Quote in JSON numbers.
type QuoteView struct {
	Subtotal        float64 `json:"subtotal"`
	Shipping        float64 `json:"shipping"`
	Discount        float64 `json:"discount"`
	Total           float64 `json:"total"`
	FreeShippingGap float64 `json:"freeShippingGap"`
}

func newQuoteView(q checkout.Quote) QuoteView {
	return QuoteView{
		Subtotal:        q.Subtotal.InexactFloat64(),
		Shipping:        q.Shipping.InexactFloat64(),
		Discount:        q.Discount.InexactFloat64(),
		Total:           q.Total.InexactFloat64(),
		FreeShippingGap: q.FreeShippingGap().InexactFloat64(),
	}
}

// CartView is the cart plus its derived totals.
type CartView struct {
	Items    []cartdomain.Item `json:"items"`
	Count    int               `json:"count"`
	Subtotal float64           `json:"subtotal"`
	Quote    QuoteView         `json:"quote"`
}

func (h *StateHandler) cartView(r *http.Request, c *state.Client) CartView {
	items := c.Cart.Items(r.Context())
	q := checkout.QuoteItems(items)
	return CartView{
		Items:    items,
		Count:    cartdomain.Count(items),
		Subtotal: q.Subtotal.InexactFloat64(),
		Quote:    newQuoteView(q),
	}
}

// GetCart handles GET /state/{ns}/cart
func (h *StateHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, h.cartView(r, c))
}

// AddToCart handles POST /state/{ns}/cart/items
func (h *StateHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}

	var req struct {
		Product  *catalog.Product `json:"product"`
		Quantity float64          `json:"quantity"`
		Variant  string           `json:"selectedVariant"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Product == nil {
		respondError(w, http.StatusBadRequest, "product is required")
		return
	}

	if err := c.Cart.Add(r.Context(), *req.Product, floorQuantity(req.Quantity), req.Variant); err != nil {
		storeFailed(w, r, err, "Failed to update cart")
		return
	}
	respondJSON(w, http.StatusOK, h.cartView(r, c))
}

// UpdateCartQuantity handles PUT /state/{ns}/cart/items/{productId}
func (h *StateHandler) UpdateCartQuantity(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req struct {
		Quantity float64 `json:"quantity"`
		Variant  string  `json:"selectedVariant"`
	}
	if !decode(w, r, &req) {
		return
	}

	if err := c.Cart.SetQuantity(r.Context(), productID, floorQuantity(req.Quantity), req.Variant); err != nil {
		storeFailed(w, r, err, "Failed to update cart")
		return
	}
	respondJSON(w, http.StatusOK, h.cartView(r, c))
}

// RemoveFromCart handles DELETE /state/{ns}/cart/items/{productId}?variant=
func (h *StateHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	if err := c.Cart.Remove(r.Context(), productID, r.URL.Query().Get("variant")); err != nil {
		storeFailed(w, r, err, "Failed to update cart")
		return
	}
	respondJSON(w, http.StatusOK, h.cartView(r, c))
}

// ClearCart handles DELETE /state/{ns}/cart
func (h *StateHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	if err := c.Cart.Clear(r.Context()); err != nil {
		storeFailed(w, r, err, "Failed to clear cart")
		return
	}
	respondJSON(w, http.StatusOK, h.cartView(r, c))
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["productId"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return 0, false
	}
	return id, true
}

// floorQuantity rounds a client quantity down to whole units.
func floorQuantity(q float64) int {
	if math.IsNaN(q) || q < 0 {
		return 0
	}
	if q > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Floor(q))
}
