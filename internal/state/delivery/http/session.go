package http

import (
	"net/http"
	"time"

	"github.com/tair/storefront/internal/session"
	"github.com/tair/storefront/internal/session/domain"
)

// SessionView is the persisted session plus its derived flags.
type SessionView struct {
	User            domain.User `json:"user"`
	Token           string      `json:"token,omitempty"`
	IsAuthenticated bool        `json:"isAuthenticated"`
	IsAdmin         bool        `json:"isAdmin"`
	DisplayName     string      `json:"displayName"`
	ExpiresAt       *time.Time  `json:"expiresAt,omitempty"`
}

func sessionView(s domain.Session) SessionView {
	v := SessionView{
		User:            s.User,
		Token:           s.Token,
		IsAuthenticated: s.IsAuthenticated(),
		IsAdmin:         s.IsAdmin(),
		DisplayName:     s.DisplayName(),
	}
	if exp, ok := s.ExpiresAt(); ok {
		v.ExpiresAt = &exp
	}
	return v
}

// GetSession handles GET /state/{ns}/session
func (h *StateHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, sessionView(c.Session.Current(r.Context())))
}

// Login handles POST /state/{ns}/session/login
func (h *StateHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.credentialsLogin(w, r, false)
}

// AdminLogin handles POST /state/{ns}/session/admin-login
func (h *StateHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.credentialsLogin(w, r, true)
}

func (h *StateHandler) credentialsLogin(w http.ResponseWriter, r *http.Request, admin bool) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}

	var req session.Credentials
	if !decode(w, r, &req) {
		return
	}

	login := c.Session.Login
	if admin {
		login = c.Session.AdminLogin
	}
	s, err := login(r.Context(), req.Email, req.Password)
	if err != nil {
		upstreamFailed(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sessionView(s))
}

// Register handles POST /state/{ns}/session/register
func (h *StateHandler) Register(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}

	var req session.Registration
	if !decode(w, r, &req) {
		return
	}

	s, err := c.Session.Register(r.Context(), req)
	if err != nil {
		upstreamFailed(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, sessionView(s))
}

// Logout handles DELETE /state/{ns}/session
func (h *StateHandler) Logout(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	if err := c.Session.Logout(r.Context()); err != nil {
		storeFailed(w, r, err, "Failed to log out")
		return
	}
	respondJSON(w, http.StatusOK, sessionView(domain.Anonymous()))
}
