// Package checkout prices the cart and turns it into an order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tair/storefront/internal/cart"
	cartdomain "github.com/tair/storefront/internal/cart/domain"
	"github.com/tair/storefront/internal/orders"
	ordersdomain "github.com/tair/storefront/internal/orders/domain"
	"github.com/tair/storefront/kafka"
	"github.com/tair/storefront/pkg/logger"
)

// ErrEmptyCart is returned when there is nothing to order.
var ErrEmptyCart = errors.New("checkout: cart is empty")

var (
	// FreeShippingAbove is the subtotal beyond which shipping is free.
	FreeShippingAbove = decimal.NewFromInt(599)
	// ShippingFee is charged at or below FreeShippingAbove.
	ShippingFee = decimal.NewFromInt(99)
)

// Quote is the priced cart.
type Quote struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// FreeShippingGap is how much more must be added for free shipping, or zero.
func (q Quote) FreeShippingGap() decimal.Decimal {
	if q.Shipping.IsZero() {
		return decimal.Zero
	}
	return FreeShippingAbove.Sub(q.Subtotal)
}

// QuoteItems prices items. An empty cart still carries the shipping fee.
func QuoteItems(items []cartdomain.Item) Quote {
	subtotal := cartdomain.Subtotal(items)
	shipping := ShippingFee
	if subtotal.GreaterThan(FreeShippingAbove) {
		shipping = decimal.Zero
	}
	return Quote{
		Subtotal: subtotal,
		Shipping: shipping,
		Discount: decimal.Zero,
		Total:    subtotal.Add(shipping),
	}
}

// Customer identifies who is ordering. Both fields are optional.
type Customer struct {
	Email string
	Name  string
}

// EventPublisher receives placed orders.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event kafka.OrderPlacedEvent) error
}

// Service places orders from one client's cart.
type Service struct {
	cart      *cart.Store
	orders    *orders.Store
	publisher EventPublisher
	namespace string
	now       func() time.Time
}

// NewService builds a checkout over the given stores. publisher may be nil.
func NewService(c *cart.Store, o *orders.Store, publisher EventPublisher, namespace string) *Service {
	return &Service{
		cart:      c,
		orders:    o,
		publisher: publisher,
		namespace: namespace,
		now:       time.Now,
	}
}

// Quote prices the current cart.
func (s *Service) Quote(ctx context.Context) Quote {
	return QuoteItems(s.cart.Items(ctx))
}

// PlaceOrder snapshots the cart into a new order, records it and empties the
// cart. The order event is best effort: a publish failure is logged only.
func (s *Service) PlaceOrder(ctx context.Context, customer Customer) (ordersdomain.Order, error) {
	items := s.cart.Items(ctx)
	if len(items) == 0 {
		return ordersdomain.Order{}, ErrEmptyCart
	}

	q := QuoteItems(items)
	order := ordersdomain.Order{
		ID:        uuid.NewString(),
		CreatedAt: s.now().UTC().Format(time.RFC3339),
		Items:     items,
		Subtotal:  q.Subtotal.InexactFloat64(),
		Shipping:  q.Shipping.InexactFloat64(),
		Total:     q.Total.InexactFloat64(),
		UserEmail: customer.Email,
		Name:      customer.Name,
		Status:    ordersdomain.StatusPlaced,
	}

	if err := s.orders.Add(ctx, order); err != nil {
		return ordersdomain.Order{}, fmt.Errorf("record order: %w", err)
	}
	if err := s.cart.Clear(ctx); err != nil {
		return order, fmt.Errorf("clear cart: %w", err)
	}

	logger.Info(ctx).
		Str("order_id", order.ID).
		Int("items", len(order.Items)).
		Float64("total", order.Total).
		Msg("Order placed")

	if s.publisher != nil {
		event := kafka.OrderPlacedEvent{Namespace: s.namespace, Order: order}
		if err := s.publisher.PublishOrderPlaced(ctx, event); err != nil {
			logger.Error(ctx).Err(err).Str("order_id", order.ID).Msg("Failed to publish order placed event")
		}
	}
	return order, nil
}
