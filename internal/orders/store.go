// Package orders is the local, append-only order history.
package orders

import (
	"context"
	"sync"

	"github.com/tair/storefront/internal/orders/domain"
	"github.com/tair/storefront/internal/persist"
)

// SlotName is the logical name of the orders slot.
const SlotName = "orders"

// Store keeps orders newest first. It neither generates nor deduplicates
// ids; callers build complete orders.
type Store struct {
	slot *persist.Slot[[]domain.Order]
	mu   sync.Mutex
}

// NewStore binds the order history to scope.
func NewStore(scope persist.Scope) *Store {
	return &Store{
		slot: persist.NewSlot(scope, SlotName, func() []domain.Order { return []domain.Order{} }),
	}
}

// All returns every recorded order, newest first.
func (s *Store) All(ctx context.Context) []domain.Order {
	orders := s.slot.Read(ctx)
	if orders == nil {
		return []domain.Order{}
	}
	return orders
}

// Count is the number of orders regardless of owner.
func (s *Store) Count(ctx context.Context) int {
	return len(s.All(ctx))
}

// ByEmail returns every order when email is blank, otherwise the orders
// whose userEmail matches it after trimming and lowercasing.
func (s *Store) ByEmail(ctx context.Context, email string) []domain.Order {
	orders := s.All(ctx)
	if domain.NormalizeEmail(email) == "" {
		return orders
	}

	matched := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if o.BelongsTo(email) {
			matched = append(matched, o)
		}
	}
	return matched
}

// Find returns the order with id.
func (s *Store) Find(ctx context.Context, id string) (domain.Order, bool) {
	for _, o := range s.All(ctx) {
		if o.ID == id {
			return o, true
		}
	}
	return domain.Order{}, false
}

// AddOnce is Add unless an order with the same id is already recorded. It
// reports whether the order was added.
func (s *Store) AddOnce(ctx context.Context, order domain.Order) (bool, error) {
	var added bool
	err := s.slot.Update(ctx, &s.mu, func(orders []domain.Order) ([]domain.Order, bool) {
		for _, o := range orders {
			if o.ID == order.ID {
				return orders, false
			}
		}
		added = true
		return prepend(orders, order), true
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

// Add prepends order to the history.
func (s *Store) Add(ctx context.Context, order domain.Order) error {
	return s.slot.Update(ctx, &s.mu, func(orders []domain.Order) ([]domain.Order, bool) {
		return prepend(orders, order), true
	})
}

// Clear forgets every order.
func (s *Store) Clear(ctx context.Context) error {
	return s.slot.Replace(ctx, &s.mu, []domain.Order{})
}

// Subscribe calls fn after every change to the history.
func (s *Store) Subscribe(fn func()) func() {
	return s.slot.Subscribe(fn)
}

// Observe returns a live view of the history.
func (s *Store) Observe(ctx context.Context, onChange func([]domain.Order)) *persist.Observer[[]domain.Order] {
	return persist.Observe(ctx, s.slot, onChange)
}

func prepend(orders []domain.Order, order domain.Order) []domain.Order {
	next := make([]domain.Order, 0, len(orders)+1)
	next = append(next, order)
	next = append(next, orders...)
	return next
}
