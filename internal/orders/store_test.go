package orders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/storefront/internal/orders/domain"
	"github.com/tair/storefront/internal/persist"
	"github.com/tair/storefront/internal/storage"
)

func newTestStore() *Store {
	return NewStore(persist.Scope{Backend: storage.NewMemory()})
}

func TestAddPrepends(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	require.NoError(t, s.Add(ctx, domain.Order{ID: "a"}))
	require.NoError(t, s.Add(ctx, domain.Order{ID: "b"}))

	all := s.All(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID)
	assert.Equal(t, 2, s.Count(ctx))
}

func TestByEmailIgnoresCaseAndWhitespace(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	require.NoError(t, s.Add(ctx, domain.Order{ID: "1", UserEmail: "  Foo@Bar.com "}))
	require.NoError(t, s.Add(ctx, domain.Order{ID: "2", UserEmail: "other@bar.com"}))
	require.NoError(t, s.Add(ctx, domain.Order{ID: "3"}))

	got := s.ByEmail(ctx, "foo@bar.com")
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)

	assert.Len(t, s.ByEmail(ctx, " FOO@BAR.COM"), 1)
	assert.Empty(t, s.ByEmail(ctx, "nobody@bar.com"))
}

func TestByEmailBlankReturnsAll(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	require.NoError(t, s.Add(ctx, domain.Order{ID: "1", UserEmail: "a@b.com"}))
	require.NoError(t, s.Add(ctx, domain.Order{ID: "2"}))

	assert.Len(t, s.ByEmail(ctx, ""), 2)
	assert.Len(t, s.ByEmail(ctx, "   "), 2)
}

func TestFindAndAddOnce(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	added, err := s.AddOnce(ctx, domain.Order{ID: "x", Total: 10})
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AddOnce(ctx, domain.Order{ID: "x", Total: 99})
	require.NoError(t, err)
	assert.False(t, added)

	o, ok := s.Find(ctx, "x")
	require.True(t, ok)
	assert.Equal(t, 10.0, o.Total)

	_, ok = s.Find(ctx, "y")
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	require.NoError(t, s.Add(ctx, domain.Order{ID: "1"}))
	require.NoError(t, s.Clear(ctx))
	assert.Empty(t, s.All(ctx))
}
