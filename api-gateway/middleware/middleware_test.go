package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerTransitions(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("api", 2, 30*time.Second)
	cb.now = func() time.Time { return now }

	fail := func() error { return errors.New("boom") }
	ok := func() error { return nil }

	assert.Error(t, cb.Call(fail))
	assert.Equal(t, StateClosed, cb.State())
	assert.Error(t, cb.Call(fail))
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Call(func() error { called = true; return nil })
	var open *ErrCircuitOpen
	require.True(t, errors.As(err, &open))
	assert.False(t, called)

	now = now.Add(31 * time.Second)
	assert.Equal(t, StateHalfOpen, cb.State())

	// A failure while half-open reopens immediately.
	assert.Error(t, cb.Call(fail))
	assert.Equal(t, StateOpen, cb.State())

	now = now.Add(31 * time.Second)
	for i := 0; i < halfOpenSuccesses; i++ {
		require.NoError(t, cb.Call(ok))
	}
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 0, cb.Stats()["failures"])
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("api", 2, time.Minute)
	fail := func() error { return errors.New("boom") }

	assert.Error(t, cb.Call(fail))
	assert.NoError(t, cb.Call(func() error { return nil }))
	assert.Error(t, cb.Call(fail))
	assert.Equal(t, StateClosed, cb.State())
}

func TestManagerReusesBreakers(t *testing.T) {
	m := NewCircuitBreakerManager(3, time.Minute)
	assert.Same(t, m.GetOrCreate("a"), m.GetOrCreate("a"))
	assert.NotSame(t, m.GetOrCreate("a"), m.GetOrCreate("b"))
	assert.Len(t, m.Stats(), 2)
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	l := NewRedisLimiter(rdb, 2, time.Minute)
	ctx := context.Background()

	allowed, remaining, _, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, remaining)

	allowed, remaining, _, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 0, remaining)

	allowed, _, _, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, _, _, err = l.Allow(ctx, "user:7")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestLocalLimiterIsPerIdentifier(t *testing.T) {
	l := NewLocalLimiter(1, time.Hour)
	ctx := context.Background()

	allowed, _, _, _ := l.Allow(ctx, "a")
	assert.True(t, allowed)
	allowed, _, _, _ = l.Allow(ctx, "a")
	assert.False(t, allowed)
	allowed, _, _, _ = l.Allow(ctx, "b")
	assert.True(t, allowed)
}

func TestBearer(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"Bearer a b", "", false},
	}
	for _, tt := range tests {
		token, ok := bearer(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.token, token, tt.header)
	}
}
