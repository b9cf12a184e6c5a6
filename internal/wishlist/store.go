// Package wishlist is the persisted set of saved products.
package wishlist

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	catalog "github.com/tair/storefront/internal/catalog/domain"
	"github.com/tair/storefront/internal/persist"
)

// SlotName is the logical name of the wishlist slot.
const SlotName = "wishlist"

// Store keeps at most one entry per product id, newest first. Stock is not
// checked: out-of-stock products may be saved.
type Store struct {
	slot *persist.Slot[[]catalog.Product]
	mu   sync.Mutex
}

// NewStore binds the wishlist to scope.
func NewStore(scope persist.Scope) *Store {
	return &Store{
		slot: persist.NewSlot(scope, SlotName, func() []catalog.Product { return []catalog.Product{} }),
	}
}

// Items returns the saved products, newest first.
func (s *Store) Items(ctx context.Context) []catalog.Product {
	items := s.slot.Read(ctx)
	if items == nil {
		return []catalog.Product{}
	}
	return items
}

// Count is the number of saved products.
func (s *Store) Count(ctx context.Context) int {
	return len(s.Items(ctx))
}

// Has reports whether productID is saved.
func (s *Store) Has(ctx context.Context, productID int64) bool {
	return indexOf(s.Items(ctx), productID) >= 0
}

// Add saves product unless its id is already present.
func (s *Store) Add(ctx context.Context, product catalog.Product) error {
	return s.slot.Update(ctx, &s.mu, func(items []catalog.Product) ([]catalog.Product, bool) {
		return with(items, product)
	})
}

// Remove drops the entry for productID if present.
func (s *Store) Remove(ctx context.Context, productID int64) error {
	return s.slot.Update(ctx, &s.mu, func(items []catalog.Product) ([]catalog.Product, bool) {
		return without(items, productID)
	})
}

// Toggle adds product if absent and removes it if present, in one write.
// It reports whether the product is saved afterwards.
func (s *Store) Toggle(ctx context.Context, product catalog.Product) (bool, error) {
	var saved bool
	err := s.slot.Update(ctx, &s.mu, func(items []catalog.Product) ([]catalog.Product, bool) {
		if indexOf(items, product.ID) >= 0 {
			return without(items, product.ID)
		}
		saved = true
		return with(items, product)
	})
	if err != nil {
		return false, err
	}
	return saved, nil
}

// Clear removes every saved product.
func (s *Store) Clear(ctx context.Context) error {
	return s.slot.Replace(ctx, &s.mu, []catalog.Product{})
}

// Savings totals what the saved products are discounted by.
func (s *Store) Savings(ctx context.Context) decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.Items(ctx) {
		total = total.Add(p.Savings())
	}
	return total
}

// Subscribe calls fn after every wishlist change.
func (s *Store) Subscribe(fn func()) func() {
	return s.slot.Subscribe(fn)
}

// Observe returns a live view of the saved products.
func (s *Store) Observe(ctx context.Context, onChange func([]catalog.Product)) *persist.Observer[[]catalog.Product] {
	return persist.Observe(ctx, s.slot, onChange)
}

func with(items []catalog.Product, product catalog.Product) ([]catalog.Product, bool) {
	if indexOf(items, product.ID) >= 0 {
		return items, false
	}
	next := make([]catalog.Product, 0, len(items)+1)
	next = append(next, product)
	next = append(next, items...)
	return next, true
}

func without(items []catalog.Product, productID int64) ([]catalog.Product, bool) {
	i := indexOf(items, productID)
	if i < 0 {
		return items, false
	}
	next := make([]catalog.Product, 0, len(items)-1)
	next = append(next, items[:i]...)
	next = append(next, items[i+1:]...)
	return next, true
}

func indexOf(items []catalog.Product, productID int64) int {
	for i, p := range items {
		if p.ID == productID {
			return i
		}
	}
	return -1
}
