package persist

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/storefront/internal/notify"
	"github.com/tair/storefront/internal/storage"
)

type failing struct{}

func (failing) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, storage.ErrUnavailable
}

func (failing) Set(context.Context, string, []byte) error {
	return storage.ErrUnavailable
}

func (failing) Delete(context.Context, string) error {
	return storage.ErrUnavailable
}

// flaky fails the next Get when armed.
type flaky struct {
	*storage.Memory
	failGet atomic.Bool
}

func (f *flaky) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.failGet.CompareAndSwap(true, false) {
		return nil, false, storage.ErrUnavailable
	}
	return f.Memory.Get(ctx, key)
}

func newScope() (Scope, *storage.Memory, *notify.Bus) {
	mem := storage.NewMemory()
	bus := notify.NewBus()
	return Scope{Backend: mem, Notifier: bus}, mem, bus
}

func emptyList() []string { return []string{} }

func TestScopeKey(t *testing.T) {
	assert.Equal(t, "storefront:cart:v1", Scope{}.Key("cart"))
	assert.Equal(t, "shop:cart:v1", Scope{Prefix: "shop"}.Key("cart"))
	assert.Equal(t, "storefront:tab-42:cart:v1", Scope{}.WithNamespace("tab-42").Key("cart"))
}

func TestSlotReadDefaults(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		raw  string
	}{
		{"malformed", `{not json`},
		{"wrong shape", `{"a":1}`},
		{"null", `null`},
		{"blank", `   `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope, mem, _ := newScope()
			require.NoError(t, mem.Set(ctx, scope.Key("recent"), []byte(tt.raw)))

			slot := NewSlot(scope, "recent", emptyList)
			assert.Equal(t, []string{}, slot.Read(ctx))
		})
	}

	t.Run("missing", func(t *testing.T) {
		scope, _, _ := newScope()
		assert.Equal(t, []string{}, NewSlot(scope, "recent", emptyList).Read(ctx))
	})

	t.Run("backend failure", func(t *testing.T) {
		slot := NewSlot(Scope{Backend: failing{}}, "recent", emptyList)
		assert.Equal(t, []string{}, slot.Read(ctx))
	})
}

func TestSlotWriteThenRead(t *testing.T) {
	ctx := context.Background()
	scope, mem, _ := newScope()
	slot := NewSlot(scope, "recent", emptyList)

	require.NoError(t, slot.Write(ctx, []string{"serum", "toner"}))
	assert.Equal(t, []string{"serum", "toner"}, slot.Read(ctx))

	raw, ok, err := mem.Get(ctx, "storefront:recent:v1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `["serum","toner"]`, string(raw))
}

func TestSlotWriteNotifiesOnce(t *testing.T) {
	ctx := context.Background()
	scope, _, bus := newScope()
	slot := NewSlot(scope, "recent", emptyList)

	calls := 0
	unsubscribe := slot.Subscribe(func() { calls++ })

	require.NoError(t, slot.Write(ctx, []string{"a"}))
	assert.Equal(t, 1, calls)

	unsubscribe()
	require.NoError(t, slot.Write(ctx, []string{"b"}))
	assert.Equal(t, 1, calls)
	assert.Zero(t, bus.Subscribers(slot.Key()))
}

func TestSlotWriteFailureDoesNotNotify(t *testing.T) {
	bus := notify.NewBus()
	slot := NewSlot(Scope{Backend: failing{}, Notifier: bus}, "recent", emptyList)

	calls := 0
	slot.Subscribe(func() { calls++ })

	err := slot.Write(context.Background(), []string{"a"})
	assert.True(t, errors.Is(err, storage.ErrUnavailable))
	assert.Zero(t, calls)
}

func TestSlotWithoutBackend(t *testing.T) {
	ctx := context.Background()
	bus := notify.NewBus()
	slot := NewSlot(Scope{Notifier: bus}, "recent", emptyList)

	calls := 0
	slot.Subscribe(func() { calls++ })

	require.NoError(t, slot.Write(ctx, []string{"a"}))
	assert.Equal(t, []string{}, slot.Read(ctx))
	assert.Zero(t, calls)
}

func TestSlotWithoutNotifier(t *testing.T) {
	slot := NewSlot(Scope{Backend: storage.NewMemory()}, "recent", emptyList)
	unsubscribe := slot.Subscribe(func() {})
	unsubscribe()
	assert.NoError(t, slot.Write(context.Background(), []string{"a"}))
}

func TestObserverFollowsWrites(t *testing.T) {
	ctx := context.Background()
	scope, mem, _ := newScope()
	slot := NewSlot(scope, "recent", emptyList)
	require.NoError(t, slot.Write(ctx, []string{"a"}))

	var seen [][]string
	obs := Observe(ctx, slot, func(v []string) { seen = append(seen, v) })
	assert.Equal(t, []string{"a"}, obs.Get())

	require.NoError(t, slot.Write(ctx, []string{"b", "a"}))
	assert.Equal(t, []string{"b", "a"}, obs.Get())

	// Another writer on the same key, e.g. a second tab.
	other := NewSlot(scope, "recent", emptyList)
	require.NoError(t, other.Write(ctx, []string{"c"}))
	assert.Equal(t, []string{"c"}, obs.Get())

	obs.Close()
	obs.Close()
	require.NoError(t, slot.Write(ctx, []string{"d"}))
	assert.Equal(t, []string{"c"}, obs.Get())
	assert.Len(t, seen, 2)

	raw, _, _ := mem.Get(ctx, slot.Key())
	assert.JSONEq(t, `["d"]`, string(raw))
}

func TestSlotLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("undecodable value is the empty default", func(t *testing.T) {
		scope, mem, _ := newScope()
		require.NoError(t, mem.Set(ctx, scope.Key("recent"), []byte(`{oops`)))

		v, err := NewSlot(scope, "recent", emptyList).Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{}, v)
	})

	t.Run("backend failure is returned", func(t *testing.T) {
		_, err := NewSlot(Scope{Backend: failing{}}, "recent", emptyList).Load(ctx)
		assert.True(t, errors.Is(err, storage.ErrUnavailable))
	})

	t.Run("no backend", func(t *testing.T) {
		v, err := NewSlot(Scope{}, "recent", emptyList).Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{}, v)
	})
}

func TestSlotUpdateKeepsValueWhenLoadFails(t *testing.T) {
	ctx := context.Background()
	backend := &flaky{Memory: storage.NewMemory()}
	bus := notify.NewBus()
	slot := NewSlot(Scope{Backend: backend, Notifier: bus}, "recent", emptyList)
	require.NoError(t, slot.Write(ctx, []string{"a", "b"}))

	calls := 0
	slot.Subscribe(func() { calls++ })

	var mu sync.Mutex
	backend.failGet.Store(true)
	err := slot.Update(ctx, &mu, func(v []string) ([]string, bool) {
		return append([]string{"c"}, v...), true
	})
	assert.True(t, errors.Is(err, storage.ErrUnavailable))
	assert.Equal(t, []string{"a", "b"}, slot.Read(ctx))
	assert.Zero(t, calls)

	require.NoError(t, slot.Update(ctx, &mu, func(v []string) ([]string, bool) {
		return append([]string{"c"}, v...), true
	}))
	assert.Equal(t, []string{"c", "a", "b"}, slot.Read(ctx))
	assert.Equal(t, 1, calls)
}

func TestSlotUpdateWithoutChangeSkipsWrite(t *testing.T) {
	ctx := context.Background()
	scope, _, _ := newScope()
	slot := NewSlot(scope, "recent", emptyList)

	calls := 0
	slot.Subscribe(func() { calls++ })

	var mu sync.Mutex
	require.NoError(t, slot.Update(ctx, &mu, func(v []string) ([]string, bool) { return v, false }))
	assert.Zero(t, calls)
}

func TestSubscribersRunAfterUnlock(t *testing.T) {
	ctx := context.Background()
	scope, _, _ := newScope()
	slot := NewSlot(scope, "recent", emptyList)

	var mu sync.Mutex
	slot.Subscribe(func() {
		if len(slot.Read(ctx)) > 2 {
			_ = slot.Update(ctx, &mu, func(v []string) ([]string, bool) { return v[:2], true })
		}
	})

	done := make(chan error, 1)
	go func() {
		done <- slot.Replace(ctx, &mu, []string{"a", "b", "c"})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Replace did not return")
	}
	assert.Equal(t, []string{"a", "b"}, slot.Read(ctx))
}
