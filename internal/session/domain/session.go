// Package domain holds the signed-in session shape and the rules for
// deriving it from auth responses.
package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is the loosely typed user document returned by the auth endpoints.
// Known fields are read through accessors; everything else is carried as is.
type User map[string]any

// Field returns a field rendered as text. Missing and null fields are "".
func (u User) Field(name string) string {
	switch v := u[name].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}

func (u User) Email() string     { return u.Field("email") }
func (u User) FirstName() string { return u.Field("firstName") }
func (u User) LastName() string  { return u.Field("lastName") }
func (u User) Name() string      { return u.Field("name") }
func (u User) Phone() string     { return u.Field("phone") }

// ID returns the numeric user id when present.
func (u User) ID() (int64, bool) {
	id, err := strconv.ParseInt(u.Field("id"), 10, 64)
	return id, err == nil
}

// IsAdmin is true only for a boolean true isAdmin field.
func (u User) IsAdmin() bool {
	v, ok := u["isAdmin"].(bool)
	return ok && v
}

// Session is the persisted auth state. A nil User is the signed-out state.
type Session struct {
	User  User            `json:"user"`
	Token string          `json:"token,omitempty"`
	Raw   json.RawMessage `json:"raw,omitempty"`
}

// Anonymous is the signed-out session.
func Anonymous() Session {
	return Session{}
}

// IsAuthenticated reports whether a user is stored.
func (s Session) IsAuthenticated() bool {
	return s.User != nil
}

// IsAdmin reports whether the user carries the admin flag.
func (s Session) IsAdmin() bool {
	return s.User != nil && s.User.IsAdmin()
}

// DisplayName is "first last" when either is set, else name, else email,
// else "".
func (s Session) DisplayName() string {
	if s.User == nil {
		return ""
	}
	first := strings.TrimSpace(s.User.FirstName())
	last := strings.TrimSpace(s.User.LastName())
	if full := strings.TrimSpace(first + " " + last); full != "" {
		return full
	}
	if name := strings.TrimSpace(s.User.Name()); name != "" {
		return name
	}
	return strings.TrimSpace(s.User.Email())
}

// Claims decodes the token payload without verifying its signature. The
// token is issued by the backend; the client only reads it.
func (s Session) Claims() (jwt.MapClaims, error) {
	if s.Token == "" {
		return nil, fmt.Errorf("session has no token")
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}

// ExpiresAt returns the token expiry if the token is a JWT carrying one.
func (s Session) ExpiresAt() (time.Time, bool) {
	claims, err := s.Claims()
	if err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
