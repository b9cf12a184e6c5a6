package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Shape names the response layout a user or token was found in.
type Shape string

const (
	ShapeUser        Shape = "user"
	ShapeDataUser    Shape = "data.user"
	ShapeProfile     Shape = "profile"
	ShapeDataProfile Shape = "data.profile"
	ShapeBare        Shape = "bare"
	ShapeToken       Shape = "token"
	ShapeAccessToken Shape = "accessToken"
	ShapeDataToken   Shape = "data.token"
	ShapeDataAccess  Shape = "data.accessToken"
	ShapeNone        Shape = ""
)

// Result is one matching attempt. Value is set only when OK.
type Result struct {
	Shape Shape
	Value json.RawMessage
	OK    bool
}

type attempt struct {
	shape Shape
	path  []string
}

// Candidates are tried in order; the first present, non-null field wins
// even when its value turns out to be unusable.
var (
	userAttempts = []attempt{
		{ShapeUser, []string{"user"}},
		{ShapeDataUser, []string{"data", "user"}},
		{ShapeProfile, []string{"profile"}},
		{ShapeDataProfile, []string{"data", "profile"}},
	}
	tokenAttempts = []attempt{
		{ShapeToken, []string{"token"}},
		{ShapeAccessToken, []string{"accessToken"}},
		{ShapeDataToken, []string{"data", "token"}},
		{ShapeDataAccess, []string{"data", "accessToken"}},
	}
)

// Normalized is a session plus the shapes it was read from.
type Normalized struct {
	Session    Session
	UserShape  Shape
	TokenShape Shape
}

// Normalize turns any auth response body into a session. It never fails:
// an unrecognized body yields a signed-out session that still carries raw.
func Normalize(raw json.RawMessage) Normalized {
	raw = bytes.TrimSpace(raw)
	out := Normalized{Session: Session{Raw: cloneRaw(raw)}}

	if tok := firstOf(raw, tokenAttempts); tok.OK {
		if text, ok := tokenText(tok.Value); ok {
			out.Session.Token = text
			out.TokenShape = tok.Shape
		}
	}

	userResult := matchUser(raw)
	if !userResult.OK {
		return out
	}
	user, ok := decodeUser(userResult.Value)
	if !ok {
		return out
	}
	out.Session.User = user
	out.UserShape = userResult.Shape
	return out
}

func matchUser(raw json.RawMessage) Result {
	if r := firstOf(raw, userAttempts); r.OK {
		return r
	}
	return matchBare(raw)
}

// matchBare accepts the whole body as the user when it is an object with no
// truthy message field.
func matchBare(raw json.RawMessage) Result {
	obj, ok := object(raw)
	if !ok {
		return Result{}
	}
	if msg, present := obj["message"]; present && truthy(msg) {
		return Result{}
	}
	return Result{Shape: ShapeBare, Value: raw, OK: true}
}

func firstOf(raw json.RawMessage, attempts []attempt) Result {
	for _, a := range attempts {
		if v, ok := lookup(raw, a.path); ok {
			return Result{Shape: a.shape, Value: v, OK: true}
		}
	}
	return Result{}
}

// lookup walks path through nested objects. Missing and null values miss.
func lookup(raw json.RawMessage, path []string) (json.RawMessage, bool) {
	cur := raw
	for _, key := range path {
		obj, ok := object(cur)
		if !ok {
			return nil, false
		}
		next, ok := obj[key]
		if !ok || isNull(next) {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func object(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func decodeUser(raw json.RawMessage) (User, bool) {
	if _, ok := object(raw); !ok {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var u User
	if err := dec.Decode(&u); err != nil || u == nil {
		return nil, false
	}
	return u, true
}

// tokenText renders a truthy token value as text.
func tokenText(raw json.RawMessage) (string, bool) {
	if !truthy(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return string(raw), true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0, isNull(raw), bytes.Equal(raw, []byte("false")), bytes.Equal(raw, []byte(`""`)):
		return false
	case raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9'):
		f, err := strconv.ParseFloat(string(raw), 64)
		return err == nil && f != 0
	}
	return true
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || !json.Valid(raw) {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}
