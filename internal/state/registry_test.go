package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/storefront/internal/cart"
	catalog "github.com/tair/storefront/internal/catalog/domain"
	"github.com/tair/storefront/internal/checkout"
	"github.com/tair/storefront/internal/notify"
	ordersdomain "github.com/tair/storefront/internal/orders/domain"
	"github.com/tair/storefront/internal/persist"
	"github.com/tair/storefront/internal/recent"
	"github.com/tair/storefront/internal/storage"
	"github.com/tair/storefront/kafka"
)

func newRegistry() *Registry {
	base := persist.Scope{Prefix: "test", Backend: storage.NewMemory(), Notifier: notify.NewBus()}
	return NewRegistry(base, nil, nil)
}

func TestNamespaceValidation(t *testing.T) {
	r := newRegistry()

	for _, ns := range []string{"tab-1", "A_b", "x"} {
		_, err := r.Client(ns)
		assert.NoError(t, err, ns)
	}
	for _, ns := range []string{"", "a/b", "tab 1", "ü"} {
		_, err := r.Client(ns)
		assert.ErrorIs(t, err, ErrInvalidNamespace, ns)
	}
	assert.Equal(t, []string{"A_b", "tab-1", "x"}, r.Namespaces())
}

func TestClientsAreSharedAndIsolated(t *testing.T) {
	r := newRegistry()
	ctx := context.Background()

	a, err := r.Client("a")
	require.NoError(t, err)
	again, err := r.Client("a")
	require.NoError(t, err)
	assert.Same(t, a, again)

	b, err := r.Client("b")
	require.NoError(t, err)

	require.NoError(t, a.Cart.Add(ctx, catalog.Product{ID: 1, Price: catalog.NewPrice(10), InStock: true}, 1, ""))
	assert.Equal(t, 1, a.Cart.Count(ctx))
	assert.Zero(t, b.Cart.Count(ctx))
	assert.Contains(t, a.Key(cart.SlotName), "test:a:"+cart.SlotName)
	assert.NotEqual(t, a.Key(cart.SlotName), b.Key(cart.SlotName))
}

func TestCheckoutMirrorsToBackOffice(t *testing.T) {
	r := newRegistry()
	ctx := context.Background()

	c, err := r.Client("shopper")
	require.NoError(t, err)
	require.NoError(t, c.Cart.Add(ctx, catalog.Product{ID: 1, Price: catalog.NewPrice(700), InStock: true}, 1, ""))

	order, err := c.Checkout.PlaceOrder(ctx, checkout.Customer{Email: "a@b.com"})
	require.NoError(t, err)

	mirrored, ok := r.BackOffice().Orders.Find(ctx, order.ID)
	require.True(t, ok)
	assert.Equal(t, "a@b.com", mirrored.UserEmail)

	// Redelivery is ignored.
	require.NoError(t, r.MirrorOrder(ctx, kafka.OrderPlacedEvent{Namespace: "shopper", Order: order}))
	assert.Equal(t, 1, r.BackOffice().Orders.Count(ctx))
}

func TestBackOfficeOrdersAreNotMirroredTwice(t *testing.T) {
	r := newRegistry()
	ctx := context.Background()

	err := r.MirrorOrder(ctx, kafka.OrderPlacedEvent{
		Namespace: BackOfficeNamespace,
		Order:     ordersdomain.Order{ID: "ord-1"},
	})
	require.NoError(t, err)
	assert.Zero(t, r.BackOffice().Orders.Count(ctx))
}

func TestWatch(t *testing.T) {
	r := newRegistry()
	ctx := context.Background()
	c, err := r.Client("w")
	require.NoError(t, err)

	var stores []string
	stop := c.Watch(func(store string) { stores = append(stores, store) })

	require.NoError(t, c.Recent.Record(ctx, "serum"))
	require.NoError(t, c.Cart.Clear(ctx))
	assert.Equal(t, []string{recent.SlotName, cart.SlotName}, stores)

	stop()
	stop()
	require.NoError(t, c.Recent.Record(ctx, "toner"))
	assert.Len(t, stores, 2)
}
