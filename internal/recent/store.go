// Package recent remembers the last few storefront search terms.
package recent

import (
	"context"
	"strings"
	"sync"

	"github.com/tair/storefront/internal/persist"
)

const (
	// SlotName is the logical name of the recent searches slot.
	SlotName = "recent-searches"
	// Limit is how many terms are kept.
	Limit = 5
)

// Store holds the recent search terms.
type Store struct {
	slot *persist.Slot[[]string]
	mu   sync.Mutex
}

// NewStore binds the list to scope.
func NewStore(scope persist.Scope) *Store {
	return &Store{
		slot: persist.NewSlot(scope, SlotName, func() []string { return []string{} }),
	}
}

// List returns terms newest first.
func (s *Store) List(ctx context.Context) []string {
	terms := s.slot.Read(ctx)
	if terms == nil {
		return []string{}
	}
	return terms
}

// Record moves term to the front, dropping an identical older entry and
// anything past Limit. Blank terms are ignored.
func (s *Store) Record(ctx context.Context, term string) error {
	if strings.TrimSpace(term) == "" {
		return nil
	}

	return s.slot.Update(ctx, &s.mu, func(terms []string) ([]string, bool) {
		next := make([]string, 0, Limit)
		next = append(next, term)
		for _, t := range terms {
			if len(next) == Limit {
				break
			}
			if t != term {
				next = append(next, t)
			}
		}
		return next, true
	})
}

// Clear forgets every term.
func (s *Store) Clear(ctx context.Context) error {
	return s.slot.Replace(ctx, &s.mu, []string{})
}

// Subscribe calls fn after every change to the list.
func (s *Store) Subscribe(fn func()) func() {
	return s.slot.Subscribe(fn)
}
