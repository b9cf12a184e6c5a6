package persist

import (
	"context"
	"sync"
)

// Observer keeps the latest value of a slot, re-reading it whenever the
// slot's change signal fires.
type Observer[T any] struct {
	slot     *Slot[T]
	ctx      context.Context
	onChange func(T)

	mu    sync.RWMutex
	value T

	unsubscribe func()
	closeOnce   sync.Once
}

// Observe reads the slot once and keeps the value fresh until Close.
// onChange, if set, runs after each refresh with the new value.
func Observe[T any](ctx context.Context, slot *Slot[T], onChange func(T)) *Observer[T] {
	o := &Observer[T]{
		slot:     slot,
		ctx:      context.WithoutCancel(ctx),
		onChange: onChange,
		value:    slot.Read(ctx),
	}
	o.unsubscribe = slot.Subscribe(o.refresh)
	return o
}

// Get returns the latest value.
func (o *Observer[T]) Get() T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.value
}

// Close detaches the observer. Calling it again is a no-op.
func (o *Observer[T]) Close() {
	o.closeOnce.Do(o.unsubscribe)
}

func (o *Observer[T]) refresh() {
	v := o.slot.Read(o.ctx)

	o.mu.Lock()
	o.value = v
	o.mu.Unlock()

	if o.onChange != nil {
		o.onChange(v)
	}
}
