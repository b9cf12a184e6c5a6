package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tair/storefront/internal/notify"
	"github.com/tair/storefront/internal/storage"
	"github.com/tair/storefront/pkg/logger"
)

// Slot is one store's persisted value.
type Slot[T any] struct {
	name     string
	key      string
	backend  storage.Backend
	notifier notify.Notifier
	empty    func() T
}

// NewSlot binds a store name to scope. empty builds the documented default
// returned whenever the persisted value is missing or unreadable.
func NewSlot[T any](scope Scope, name string, empty func() T) *Slot[T] {
	return &Slot[T]{
		name:     name,
		key:      scope.Key(name),
		backend:  scope.Backend,
		notifier: scope.Notifier,
		empty:    empty,
	}
}

// Name returns the logical store name.
func (s *Slot[T]) Name() string { return s.name }

// Key returns the persisted key.
func (s *Slot[T]) Key() string { return s.key }

// Read returns the persisted value or the empty default. It never fails.
func (s *Slot[T]) Read(ctx context.Context) T {
	v, err := s.Load(ctx)
	if err != nil {
		s.recovered(ctx, "backend", err)
		return s.empty()
	}
	return v
}

// Load is Read for read-modify-write callers. A missing or undecodable value
// still yields the empty default, but a backend failure is returned so the
// caller can skip its write.
func (s *Slot[T]) Load(ctx context.Context) (T, error) {
	if s.backend == nil {
		return s.empty(), nil
	}

	raw, ok, err := s.backend.Get(ctx, s.key)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("read %s: %w", s.name, err)
	}
	raw = bytes.TrimSpace(raw)
	if !ok || len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return s.empty(), nil
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		s.recovered(ctx, "decode", err)
		return s.empty(), nil
	}
	return v, nil
}

// Write replaces the persisted value and then announces the change exactly
// once. Without a backend it does nothing.
func (s *Slot[T]) Write(ctx context.Context, v T) error {
	written, err := s.set(ctx, v)
	if err != nil || !written {
		return err
	}
	s.announce(ctx)
	return nil
}

// Update loads the value under mu, applies fn and persists the result when
// fn reports a change. Subscribers run after mu is released, so they may
// call back into the store. A failed load leaves the stored value untouched.
func (s *Slot[T]) Update(ctx context.Context, mu sync.Locker, fn func(T) (T, bool)) error {
	mu.Lock()
	cur, err := s.Load(ctx)
	if err != nil {
		mu.Unlock()
		return err
	}
	next, changed := fn(cur)
	if !changed {
		mu.Unlock()
		return nil
	}
	written, err := s.set(ctx, next)
	mu.Unlock()

	if err != nil || !written {
		return err
	}
	s.announce(ctx)
	return nil
}

// Replace stores v under mu without reading the previous value and announces
// it after mu is released.
func (s *Slot[T]) Replace(ctx context.Context, mu sync.Locker, v T) error {
	mu.Lock()
	written, err := s.set(ctx, v)
	mu.Unlock()

	if err != nil || !written {
		return err
	}
	s.announce(ctx)
	return nil
}

func (s *Slot[T]) set(ctx context.Context, v T) (bool, error) {
	if s.backend == nil {
		return false, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", s.name, err)
	}
	if err := s.backend.Set(ctx, s.key, data); err != nil {
		return false, fmt.Errorf("write %s: %w", s.name, err)
	}
	slotWrites.WithLabelValues(s.name).Inc()
	return true, nil
}

func (s *Slot[T]) announce(ctx context.Context) {
	if s.notifier != nil {
		s.notifier.Publish(ctx, s.key)
	}
}

// Subscribe calls fn after every change to this slot, local or remote.
func (s *Slot[T]) Subscribe(fn func()) func() {
	if s.notifier == nil {
		return func() {}
	}
	return s.notifier.Subscribe(s.key, fn)
}

func (s *Slot[T]) log() zerolog.Logger {
	return logger.ForStore(s.name)
}

func (s *Slot[T]) recovered(ctx context.Context, reason string, err error) {
	slotRecoveries.WithLabelValues(s.name, reason).Inc()
	l := s.log()
	l.Debug().
		Ctx(ctx).
		Err(err).
		Str("key", s.key).
		Str("reason", reason).
		Msg("Unreadable slot, using empty default")
}
