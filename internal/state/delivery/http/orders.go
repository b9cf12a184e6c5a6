package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tair/storefront/internal/checkout"
	"github.com/tair/storefront/internal/orders/domain"
)

// ListOrders handles GET /state/{ns}/orders?email=
func (h *StateHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	orders := c.Orders.ByEmail(r.Context(), r.URL.Query().Get("email"))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"orders": orders,
		"count":  len(orders),
	})
}

// QueryOrders handles GET /state/{ns}/orders/query?status=&search=&sortBy=&desc=
func (h *StateHandler) QueryOrders(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}

	params := r.URL.Query()
	desc, _ := strconv.ParseBool(params.Get("desc"))
	q := domain.Query{
		Status: params.Get("status"),
		Search: params.Get("search"),
		SortBy: params.Get("sortBy"),
		Desc:   desc,
	}

	orders := q.Apply(c.Orders.All(r.Context()))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrder handles GET /state/{ns}/orders/{id}
func (h *StateHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	order, found := c.Orders.Find(r.Context(), mux.Vars(r)["id"])
	if !found {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// AddOrder handles POST /state/{ns}/orders
func (h *StateHandler) AddOrder(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}

	var order domain.Order
	if !decode(w, r, &order) {
		return
	}
	if order.ID == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := c.Orders.Add(r.Context(), order); err != nil {
		storeFailed(w, r, err, "Failed to record order")
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

// ClearOrders handles DELETE /state/{ns}/orders
func (h *StateHandler) ClearOrders(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	if err := c.Orders.Clear(r.Context()); err != nil {
		storeFailed(w, r, err, "Failed to clear orders")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetQuote handles GET /state/{ns}/checkout/quote
func (h *StateHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, newQuoteView(c.Checkout.Quote(r.Context())))
}

// PlaceOrder handles POST /state/{ns}/checkout. Without an email in the body
// the signed-in user's email is used.
func (h *StateHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}

	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}

	customer := checkout.Customer{Email: req.Email, Name: req.Name}
	if customer.Email == "" || customer.Name == "" {
		sess := c.Session.Current(r.Context())
		if customer.Email == "" {
			customer.Email = sess.User.Email()
		}
		if customer.Name == "" {
			customer.Name = sess.DisplayName()
		}
	}

	order, err := c.Checkout.PlaceOrder(r.Context(), customer)
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusConflict, "Cart is empty")
		return
	case err != nil && order.ID == "":
		storeFailed(w, r, err, "Failed to place order")
		return
	case err != nil:
		// The order is recorded; only emptying the cart failed.
		storeFailed(w, r, err, "Order placed but cart could not be cleared")
		return
	}
	respondJSON(w, http.StatusCreated, order)
}
