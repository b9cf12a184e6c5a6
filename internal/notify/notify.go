// Package notify announces that a named persisted slot changed so every
// observer can re-read it.
package notify

import (
	"context"
	"sync"
)

// Notifier publishes and subscribes to per-topic change signals. A topic is
// the persisted key of the slot that changed.
type Notifier interface {
	Publish(ctx context.Context, topic string)
	// Subscribe registers fn for topic. The returned func removes it and is
	// safe to call more than once.
	Subscribe(topic string, fn func()) (unsubscribe func())
}

type subscription struct {
	id uint64
	fn func()
}

// Bus is the in-process Notifier. Delivery is synchronous and in
// subscription order, so a publisher returns only after every observer ran.
type Bus struct {
	mu   sync.RWMutex
	next uint64
	subs map[string][]subscription
}

// NewBus creates an empty in-process bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string][]subscription)}
}

// Publish runs every subscriber of topic in order.
func (b *Bus) Publish(_ context.Context, topic string) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[topic]...)
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn()
	}
}

// Subscribe registers fn for topic.
func (b *Bus) Subscribe(topic string, fn func()) func() {
	b.mu.Lock()
	b.next++
	id := b.next
	b.subs[topic] = append(b.subs[topic], subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(topic, id) })
	}
}

// Subscribers reports how many callbacks are registered for topic.
func (b *Bus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

func (b *Bus) remove(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[topic]
	for i, s := range subs {
		if s.id == id {
			subs = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(b.subs, topic)
		return
	}
	b.subs[topic] = subs
}

// Hub joins the local signal (changes made by this process) and an optional
// remote signal (changes made elsewhere). Subscribers hear both.
type Hub struct {
	local  *Bus
	remote Notifier
}

// NewHub builds a Hub; remote may be nil for a single-process deployment.
func NewHub(local *Bus, remote Notifier) *Hub {
	if local == nil {
		local = NewBus()
	}
	return &Hub{local: local, remote: remote}
}

// Publish signals local subscribers and then other processes.
func (h *Hub) Publish(ctx context.Context, topic string) {
	h.local.Publish(ctx, topic)
	if h.remote != nil {
		h.remote.Publish(ctx, topic)
	}
}

// Subscribe registers fn on the local bus.
func (h *Hub) Subscribe(topic string, fn func()) func() {
	unsubLocal := h.local.Subscribe(topic, fn)
	unsubRemote := func() {}
	if h.remote != nil {
		unsubRemote = h.remote.Subscribe(topic, fn)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubLocal()
			unsubRemote()
		})
	}
}
