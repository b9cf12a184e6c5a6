// Package cart is the persisted shopping cart.
package cart

import (
	"context"
	"sync"

	"github.com/tair/storefront/internal/cart/domain"
	catalog "github.com/tair/storefront/internal/catalog/domain"
	"github.com/tair/storefront/internal/persist"
)

// SlotName is the logical name of the cart slot.
const SlotName = "cart"

// Store holds the cart lines, most recently added first.
type Store struct {
	slot *persist.Slot[[]domain.Item]
	mu   sync.Mutex
}

// NewStore binds the cart to scope.
func NewStore(scope persist.Scope) *Store {
	return &Store{
		slot: persist.NewSlot(scope, SlotName, func() []domain.Item { return []domain.Item{} }),
	}
}

// Items returns the cart lines, or an empty cart when nothing readable is
// stored.
func (s *Store) Items(ctx context.Context) []domain.Item {
	items := s.slot.Read(ctx)
	if items == nil {
		return []domain.Item{}
	}
	return items
}

// Count is the total quantity across all lines.
func (s *Store) Count(ctx context.Context) int {
	return domain.Count(s.Items(ctx))
}

// Subtotal is the sum of price times quantity over all lines.
func (s *Store) Subtotal(ctx context.Context) float64 {
	f, _ := domain.Subtotal(s.Items(ctx)).Float64()
	return f
}

// Add puts quantity units of product in the cart. Out-of-stock products are
// ignored and quantities below 1 count as 1. A matching line is incremented;
// otherwise the new line goes to the front.
func (s *Store) Add(ctx context.Context, product catalog.Product, quantity int, variant string) error {
	if !product.InStock {
		return nil
	}
	if quantity < 1 {
		quantity = 1
	}

	key := domain.KeyOf(product.ID, variant)
	return s.slot.Update(ctx, &s.mu, func(items []domain.Item) ([]domain.Item, bool) {
		for i := range items {
			if items[i].Key() == key {
				items[i].Quantity += quantity
				return items, true
			}
		}

		next := make([]domain.Item, 0, len(items)+1)
		next = append(next, domain.Item{Product: product, Quantity: quantity, SelectedVariant: variant})
		next = append(next, items...)
		return next, true
	})
}

// Remove deletes the line for (productID, variant). A missing line is not an
// error.
func (s *Store) Remove(ctx context.Context, productID int64, variant string) error {
	return s.slot.Update(ctx, &s.mu, without(domain.KeyOf(productID, variant)))
}

// SetQuantity overwrites the quantity of one line; zero or less removes it.
func (s *Store) SetQuantity(ctx context.Context, productID int64, quantity int, variant string) error {
	key := domain.KeyOf(productID, variant)
	if quantity <= 0 {
		return s.slot.Update(ctx, &s.mu, without(key))
	}

	return s.slot.Update(ctx, &s.mu, func(items []domain.Item) ([]domain.Item, bool) {
		for i := range items {
			if items[i].Key() == key {
				if items[i].Quantity == quantity {
					return items, false
				}
				items[i].Quantity = quantity
				return items, true
			}
		}
		return items, false
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	return s.slot.Replace(ctx, &s.mu, []domain.Item{})
}

// Subscribe calls fn after every cart change, from this process or another.
func (s *Store) Subscribe(fn func()) func() {
	return s.slot.Subscribe(fn)
}

// Observe returns a live view of the cart lines.
func (s *Store) Observe(ctx context.Context, onChange func([]domain.Item)) *persist.Observer[[]domain.Item] {
	return persist.Observe(ctx, s.slot, onChange)
}

func without(key domain.Key) func([]domain.Item) ([]domain.Item, bool) {
	return func(items []domain.Item) ([]domain.Item, bool) {
		next := make([]domain.Item, 0, len(items))
		for _, it := range items {
			if it.Key() != key {
				next = append(next, it)
			}
		}
		return next, len(next) != len(items)
	}
}
