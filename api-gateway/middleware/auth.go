package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tair/storefront/internal/catalog/demo"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*demo.Claims, error)
}

// Locals keys set by the auth middleware.
const (
	LocalUserID  = "user_id"
	LocalEmail   = "email"
	LocalIsAdmin = "is_admin"
)

// AuthMiddleware requires a valid bearer token.
func AuthMiddleware(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		token, ok := bearer(authHeader)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		setIdentity(c, claims)
		return c.Next()
	}
}

// AdminMiddleware requires AuthMiddleware to have admitted an administrator.
func AdminMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if admin, _ := c.Locals(LocalIsAdmin).(bool); !admin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin access required",
			})
		}
		return c.Next()
	}
}

// OptionalAuthMiddleware records the caller identity when a valid token is
// present and otherwise lets the request through.
func OptionalAuthMiddleware(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token, ok := bearer(c.Get("Authorization")); ok {
			if claims, err := verifier.Verify(token); err == nil {
				setIdentity(c, claims)
			}
		}
		return c.Next()
	}
}

func bearer(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func setIdentity(c *fiber.Ctx, claims *demo.Claims) {
	c.Locals(LocalUserID, claims.Subject)
	c.Locals(LocalEmail, claims.Email)
	c.Locals(LocalIsAdmin, claims.IsAdmin)
}
