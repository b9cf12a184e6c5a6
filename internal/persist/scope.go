// Package persist implements the persisted slot primitive every store is
// built on: a whole-document JSON value under one key, read leniently and
// announced on every write.
package persist

import (
	"strings"

	"github.com/tair/storefront/internal/notify"
	"github.com/tair/storefront/internal/storage"
)

// slotVersion is bumped when a stored document shape changes incompatibly.
const slotVersion = "v1"

// Scope binds stores to one backend, one notifier and one key namespace.
// A zero Backend means no persistent area is available: reads return the
// empty default and writes are dropped.
type Scope struct {
	Prefix    string
	Namespace string
	Backend   storage.Backend
	Notifier  notify.Notifier
}

// Key returns the persisted key for a store name, e.g. "storefront:cart:v1"
// or "storefront:tab-42:cart:v1" inside a namespace.
func (s Scope) Key(name string) string {
	parts := make([]string, 0, 4)
	prefix := s.Prefix
	if prefix == "" {
		prefix = "storefront"
	}
	parts = append(parts, prefix)
	if s.Namespace != "" {
		parts = append(parts, s.Namespace)
	}
	parts = append(parts, name, slotVersion)
	return strings.Join(parts, ":")
}

// WithNamespace returns a copy of the scope for another client namespace.
func (s Scope) WithNamespace(ns string) Scope {
	s.Namespace = ns
	return s
}
