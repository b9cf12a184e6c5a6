// Package session is the persisted auth session.
package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/tair/storefront/internal/persist"
	"github.com/tair/storefront/internal/session/domain"
	"github.com/tair/storefront/pkg/logger"
)

// SlotName is the logical name of the session slot.
const SlotName = "auth-session"

// Store moves between signed out and signed in. Only a successful auth call
// signs in and only Logout signs out.
type Store struct {
	slot *persist.Slot[domain.Session]
	auth Authenticator
	mu   sync.Mutex
}

// NewStore binds the session to scope. auth performs the server calls.
func NewStore(scope persist.Scope, auth Authenticator) *Store {
	return &Store{
		slot: persist.NewSlot(scope, SlotName, domain.Anonymous),
		auth: auth,
	}
}

// Current returns the stored session, or the signed-out state.
func (s *Store) Current(ctx context.Context) domain.Session {
	return s.slot.Read(ctx)
}

// IsAuthenticated reports whether both a user and a token are stored.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	return s.Current(ctx).IsAuthenticated()
}

// IsAdmin reports whether the stored user carries the admin role.
func (s *Store) IsAdmin(ctx context.Context) bool {
	return s.Current(ctx).IsAdmin()
}

// DisplayName is the name shown for the signed-in user.
func (s *Store) DisplayName(ctx context.Context) string {
	return s.Current(ctx).DisplayName()
}

// Login signs in with email and password.
func (s *Store) Login(ctx context.Context, email, password string) (domain.Session, error) {
	return s.establish(ctx, "login", func() (json.RawMessage, error) {
		return s.auth.Login(ctx, Credentials{Email: email, Password: password})
	})
}

// Register creates an account and signs it in.
func (s *Store) Register(ctx context.Context, reg Registration) (domain.Session, error) {
	return s.establish(ctx, "register", func() (json.RawMessage, error) {
		return s.auth.Register(ctx, reg)
	})
}

// AdminLogin signs in through the administrator endpoint.
func (s *Store) AdminLogin(ctx context.Context, email, password string) (domain.Session, error) {
	return s.establish(ctx, "admin_login", func() (json.RawMessage, error) {
		return s.auth.AdminLogin(ctx, Credentials{Email: email, Password: password})
	})
}

// Logout signs out locally. No server call is made.
func (s *Store) Logout(ctx context.Context) error {
	return s.slot.Replace(ctx, &s.mu, domain.Anonymous())
}

// Subscribe calls fn after every session change.
func (s *Store) Subscribe(fn func()) func() {
	return s.slot.Subscribe(fn)
}

// Observe returns a live view of the session.
func (s *Store) Observe(ctx context.Context, onChange func(domain.Session)) *persist.Observer[domain.Session] {
	return persist.Observe(ctx, s.slot, onChange)
}

// establish runs one auth call and persists its normalized result. On error
// the stored session is left untouched.
func (s *Store) establish(ctx context.Context, op string, call func() (json.RawMessage, error)) (domain.Session, error) {
	raw, err := call()
	if err != nil {
		logger.Warn(ctx).Err(err).Str("store", SlotName).Str("op", op).Msg("Auth request failed")
		return domain.Session{}, err
	}

	n := domain.Normalize(raw)

	if err := s.slot.Replace(ctx, &s.mu, n.Session); err != nil {
		return n.Session, err
	}

	logger.Info(ctx).
		Str("store", SlotName).
		Str("op", op).
		Str("user_shape", string(n.UserShape)).
		Str("token_shape", string(n.TokenShape)).
		Bool("authenticated", n.Session.IsAuthenticated()).
		Msg("Session stored")
	return n.Session, nil
}
