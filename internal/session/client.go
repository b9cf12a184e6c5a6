package session

import (
	"context"
	"encoding/json"

	"github.com/tair/storefront/internal/api"
)

// Auth endpoint paths.
const (
	LoginPath      = "/api/auth/login"
	RegisterPath   = "/api/auth/register"
	AdminLoginPath = "/api/admin/login"
)

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the register request body.
type Registration struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Authenticator performs the auth calls and returns the raw response body.
// A non-2xx response is an *api.Error.
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (json.RawMessage, error)
	Register(ctx context.Context, reg Registration) (json.RawMessage, error)
	AdminLogin(ctx context.Context, creds Credentials) (json.RawMessage, error)
}

// Client is the HTTP Authenticator. Each call is a single request.
type Client struct {
	api *api.Client
}

// NewClient creates an Authenticator over the storefront API.
func NewClient(c *api.Client) *Client {
	return &Client{api: c}
}

// Login posts credentials to the login endpoint.
func (c *Client) Login(ctx context.Context, creds Credentials) (json.RawMessage, error) {
	return c.api.PostJSON(ctx, LoginPath, creds)
}

// Register posts a new account to the register endpoint.
func (c *Client) Register(ctx context.Context, reg Registration) (json.RawMessage, error) {
	return c.api.PostJSON(ctx, RegisterPath, reg)
}

// AdminLogin posts credentials to the admin login endpoint.
func (c *Client) AdminLogin(ctx context.Context, creds Credentials) (json.RawMessage, error) {
	return c.api.PostJSON(ctx, AdminLoginPath, creds)
}
