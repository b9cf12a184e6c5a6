package demo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tair/storefront/internal/api"
	"github.com/tair/storefront/internal/session"
)

// LocalAuth answers session logins from Accounts in-process. Its payloads
// and failures match what the demo gateway sends over HTTP.
type LocalAuth struct {
	accounts *Accounts
}

var _ session.Authenticator = (*LocalAuth)(nil)

// NewLocalAuth serves the auth endpoints from accounts without a network hop.
func NewLocalAuth(accounts *Accounts) *LocalAuth {
	return &LocalAuth{accounts: accounts}
}

// Login authenticates a customer.
func (l *LocalAuth) Login(ctx context.Context, creds session.Credentials) (json.RawMessage, error) {
	return reply(l.accounts.Login(ctx, LoginRequest{Email: creds.Email, Password: creds.Password}))
}

// AdminLogin authenticates an administrator.
func (l *LocalAuth) AdminLogin(ctx context.Context, creds session.Credentials) (json.RawMessage, error) {
	return reply(l.accounts.AdminLogin(ctx, LoginRequest{Email: creds.Email, Password: creds.Password}))
}

// Register creates a customer account.
func (l *LocalAuth) Register(ctx context.Context, reg session.Registration) (json.RawMessage, error) {
	req := RegisterRequest{
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		Email:     reg.Email,
		Phone:     reg.Phone,
		Password:  reg.Password,
	}
	if reg.ConfirmPassword != "" {
		req.ConfirmPassword = &reg.ConfirmPassword
	}
	return reply(l.accounts.Register(ctx, req))
}

func reply(res AuthResponse, err error) (json.RawMessage, error) {
	if err != nil {
		status, message, _ := Failure(err)
		body, _ := json.Marshal(map[string]string{"message": message})
		return nil, &api.Error{Status: status, Body: string(body)}
	}
	data, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encode auth response: %w", err)
	}
	return data, nil
}
