package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKnownShapes(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		userShape Shape
		token     string
		tokShape  Shape
	}{
		{"user and token", `{"user":{"email":"a@b.com"},"token":"t"}`, ShapeUser, "t", ShapeToken},
		{"data envelope", `{"data":{"user":{"email":"a@b.com"},"accessToken":"t"}}`, ShapeDataUser, "t", ShapeDataAccess},
		{"bare user", `{"email":"a@b.com"}`, ShapeBare, "", ShapeNone},
		{"profile", `{"profile":{"email":"a@b.com"},"accessToken":"t"}`, ShapeProfile, "t", ShapeAccessToken},
		{"data profile", `{"data":{"profile":{"email":"a@b.com"},"token":"t"}}`, ShapeDataProfile, "t", ShapeDataToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Normalize(json.RawMessage(tt.body))
			require.True(t, n.Session.IsAuthenticated())
			assert.Equal(t, "a@b.com", n.Session.User.Email())
			assert.Equal(t, tt.userShape, n.UserShape)
			assert.Equal(t, tt.token, n.Session.Token)
			assert.Equal(t, tt.tokShape, n.TokenShape)
			assert.JSONEq(t, tt.body, string(n.Session.Raw))
		})
	}
}

func TestNormalizeOrder(t *testing.T) {
	// user beats data.user, token beats accessToken.
	n := Normalize(json.RawMessage(`{"user":{"email":"top@x.com"},"data":{"user":{"email":"nested@x.com"}},"accessToken":"b","token":"a"}`))
	assert.Equal(t, "top@x.com", n.Session.User.Email())
	assert.Equal(t, "a", n.Session.Token)

	// A null candidate is skipped.
	n = Normalize(json.RawMessage(`{"user":null,"profile":{"email":"p@x.com"},"token":null,"accessToken":"b"}`))
	assert.Equal(t, "p@x.com", n.Session.User.Email())
	assert.Equal(t, ShapeProfile, n.UserShape)
	assert.Equal(t, "b", n.Session.Token)
}

func TestNormalizeMessageHeuristic(t *testing.T) {
	n := Normalize(json.RawMessage(`{"message":"Invalid credentials"}`))
	assert.False(t, n.Session.IsAuthenticated())

	// A falsy message still lets the bare body stand in for the user.
	n = Normalize(json.RawMessage(`{"message":"","email":"a@b.com"}`))
	require.True(t, n.Session.IsAuthenticated())
	assert.Equal(t, ShapeBare, n.UserShape)
}

func TestNormalizeTokenTruthiness(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"token":""}`, ""},
		{`{"token":false}`, ""},
		{`{"token":0}`, ""},
		{`{"token":12345}`, "12345"},
		{`{"token":true}`, "true"},
		{`{"token":"","accessToken":"x"}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(json.RawMessage(tt.body)).Session.Token)
		})
	}
}

func TestNormalizeUnusableUser(t *testing.T) {
	n := Normalize(json.RawMessage(`{"user":"nobody","token":"t"}`))
	assert.False(t, n.Session.IsAuthenticated())
	assert.Equal(t, "t", n.Session.Token)

	for _, body := range []string{``, `null`, `[1,2]`, `"text"`, `{bad json`} {
		n := Normalize(json.RawMessage(body))
		assert.False(t, n.Session.IsAuthenticated(), body)
		assert.Empty(t, n.Session.Token, body)
	}
}

func TestSessionDerivedFields(t *testing.T) {
	s := Session{User: User{"firstName": "Asha", "lastName": " Rao ", "email": "asha@x.com"}}
	assert.Equal(t, "Asha Rao", s.DisplayName())

	s.User = User{"firstName": "", "name": "Ravi", "email": "ravi@x.com"}
	assert.Equal(t, "Ravi", s.DisplayName())

	s.User = User{"email": "only@x.com"}
	assert.Equal(t, "only@x.com", s.DisplayName())

	assert.Equal(t, "", Anonymous().DisplayName())
	assert.False(t, Anonymous().IsAdmin())
}

func TestIsAdminIsStrict(t *testing.T) {
	assert.True(t, Session{User: User{"isAdmin": true}}.IsAdmin())
	assert.False(t, Session{User: User{"isAdmin": "true"}}.IsAdmin())
	assert.False(t, Session{User: User{"isAdmin": 1.0}}.IsAdmin())
	assert.False(t, Session{User: User{}}.IsAdmin())
}

func TestUserFields(t *testing.T) {
	n := Normalize(json.RawMessage(`{"user":{"id":42,"phone":9876543210,"active":true}}`))
	id, ok := n.Session.User.ID()
	require.True(t, ok)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "9876543210", n.Session.User.Phone())
	assert.Equal(t, "true", n.Session.User.Field("active"))
	assert.Equal(t, "", n.Session.User.Field("missing"))

	// After a persisted round trip numbers come back as float64.
	var s Session
	require.NoError(t, json.Unmarshal([]byte(`{"user":{"id":42}}`), &s))
	id, ok = s.User.ID()
	require.True(t, ok)
	assert.Equal(t, int64(42), id)
}

func TestExpiresAt(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": exp.Unix(),
	}).SignedString([]byte("any"))
	require.NoError(t, err)

	got, ok := Session{Token: token}.ExpiresAt()
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	_, ok = Session{Token: "opaque"}.ExpiresAt()
	assert.False(t, ok)
	_, ok = Anonymous().ExpiresAt()
	assert.False(t, ok)
}
