package storage

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by backends that cannot reach their store.
var ErrUnavailable = errors.New("storage unavailable")

// Backend is the persistent key/value area backing every store slot. Values
// are whole serialized documents; a Set replaces the prior value.
type Backend interface {
	// Get returns the stored value and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
