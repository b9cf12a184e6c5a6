package demo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/tair/storefront/pkg/logger"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already exists")
	ErrPhoneTaken         = errors.New("phone already exists")
	ErrNotAdmin           = errors.New("admin privileges required")
	ErrInvalidToken       = errors.New("invalid token")
)

const tokenIssuer = "storefront-demo"

// ValidationError is a rejected request field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// User is the account document returned by the auth endpoints.
type User struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName,omitempty"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AuthResponse is the body of a successful login or registration.
type AuthResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
	Token   string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone"`
	Password        string  `json:"password"`
	ConfirmPassword *string `json:"confirmPassword"`
}

// Claims are carried by demo tokens.
type Claims struct {
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

type account struct {
	user User
	hash []byte
}

// Accounts is an in-memory user store issuing HS256 tokens.
type Accounts struct {
	mu      sync.RWMutex
	byEmail map[string]*account
	phones  map[string]struct{}
	nextID  int64

	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAccounts creates an empty account store signing tokens with secret.
func NewAccounts(secret string, ttl time.Duration) *Accounts {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Accounts{
		byEmail: make(map[string]*account),
		phones:  make(map[string]struct{}),
		nextID:  1,
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
	}
}

// SeedAdmin creates an administrator account.
func (a *Accounts) SeedAdmin(email, password string) error {
	_, err := a.create(RegisterRequest{FirstName: "Admin", Email: email, Password: password}, true)
	return err
}

// Register validates req and creates a customer account.
func (a *Accounts) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	switch {
	case strings.TrimSpace(req.FirstName) == "":
		return AuthResponse{}, invalid("firstName is required")
	case strings.TrimSpace(req.Email) == "":
		return AuthResponse{}, invalid("email is required")
	case req.Password == "":
		return AuthResponse{}, invalid("password is required")
	case req.ConfirmPassword != nil && *req.ConfirmPassword != req.Password:
		return AuthResponse{}, invalid("password and confirmPassword must match")
	}

	user, err := a.create(req, false)
	if err != nil {
		return AuthResponse{}, err
	}
	logger.Info(ctx).Int64("user_id", user.ID).Msg("Demo account registered")
	return a.respond("Registered successfully", user)
}

// Login checks a customer's credentials and issues a token.
func (a *Accounts) Login(ctx context.Context, req LoginRequest) (AuthResponse, error) {
	user, err := a.authenticate(req)
	if err != nil {
		return AuthResponse{}, err
	}
	logger.Debug(ctx).Int64("user_id", user.ID).Msg("Demo login")
	return a.respond("Login successful", user)
}

// AdminLogin is Login restricted to administrators.
func (a *Accounts) AdminLogin(ctx context.Context, req LoginRequest) (AuthResponse, error) {
	user, err := a.authenticate(req)
	if err != nil {
		return AuthResponse{}, err
	}
	if !user.IsAdmin {
		return AuthResponse{}, ErrNotAdmin
	}
	logger.Debug(ctx).Int64("user_id", user.ID).Msg("Demo admin login")
	return a.respond("Admin login successful", user)
}

// Verify checks a token signed by these accounts.
func (a *Accounts) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

func (a *Accounts) authenticate(req LoginRequest) (User, error) {
	switch {
	case strings.TrimSpace(req.Email) == "":
		return User{}, invalid("email is required")
	case req.Password == "":
		return User{}, invalid("password is required")
	}

	a.mu.RLock()
	acc, ok := a.byEmail[emailKey(req.Email)]
	a.mu.RUnlock()
	if !ok {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(req.Password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return acc.user, nil
}

func (a *Accounts) create(req RegisterRequest, admin bool) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	email := strings.TrimSpace(req.Email)
	phone := strings.TrimSpace(req.Phone)

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, taken := a.byEmail[emailKey(email)]; taken {
		return User{}, ErrEmailTaken
	}
	if phone != "" {
		if _, taken := a.phones[phone]; taken {
			return User{}, ErrPhoneTaken
		}
		a.phones[phone] = struct{}{}
	}

	now := a.now().UTC()
	user := User{
		ID:        a.nextID,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     email,
		Phone:     phone,
		IsAdmin:   admin,
		CreatedAt: now,
		UpdatedAt: now,
	}
	a.nextID++
	a.byEmail[emailKey(email)] = &account{user: user, hash: hash}
	return user, nil
}

func (a *Accounts) respond(message string, user User) (AuthResponse, error) {
	now := a.now()
	claims := Claims{
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return AuthResponse{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return AuthResponse{Message: message, User: user, Token: token}, nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
