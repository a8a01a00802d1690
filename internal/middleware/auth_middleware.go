package middleware

import (
	"context"
	"strings"

	"pgfinder_backend/internal/model"
	"pgfinder_backend/pkg/utils/jwt"

	"github.com/gofiber/fiber/v2"
)

const identityKey = "identity"

// Identity is the caller resolved from a bearer token for the lifetime of one request.
type Identity struct {
	UserID uint       `json:"user_id"`
	Name   string     `json:"name"`
	Email  string     `json:"email"`
	Role   model.Role `json:"role"`
}

// ActiveCheck reports whether the token's user may still act. Deactivated users
// keep a signed token until it expires, so the check runs on every request.
type ActiveCheck func(ctx context.Context, userID uint) (bool, error)

// Guard allows a request by returning nil, or denies it with a *fiber.Error.
type Guard func(c *fiber.Ctx) error

var (
	errUnauthenticated = fiber.NewError(fiber.StatusUnauthorized, "Authentication required. Please login.")
	errForbidden       = fiber.NewError(fiber.StatusForbidden, "Access denied")
)

// Identify resolves an optional identity. Missing, invalid or expired tokens
// leave the request anonymous; guards decide whether that matters.
func Identify(check ActiveCheck) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if header == "" || token == header {
			return c.Next()
		}

		claims, err := jwt.ValidateToken(token)
		if err != nil {
			return c.Next()
		}

		if check != nil {
			ok, err := check(c.UserContext(), claims.UserID)
			if err != nil || !ok {
				return c.Next()
			}
		}

		c.Locals(identityKey, &Identity{
			UserID: claims.UserID,
			Name:   claims.Name,
			Email:  claims.Email,
			Role:   model.Role(claims.Role),
		})
		return c.Next()
	}
}

func CurrentIdentity(c *fiber.Ctx) (*Identity, bool) {
	id, ok := c.Locals(identityKey).(*Identity)
	return id, ok && id != nil
}

func Authenticated(c *fiber.Ctx) error {
	if _, ok := CurrentIdentity(c); !ok {
		return errUnauthenticated
	}
	return nil
}

func HasRole(role model.Role) Guard {
	return func(c *fiber.Ctx) error {
		id, ok := CurrentIdentity(c)
		if !ok {
			return errUnauthenticated
		}
		if id.Role != role {
			return errForbidden
		}
		return nil
	}
}

// Guarded runs guards in order before h; the first denial wins.
func Guarded(h fiber.Handler, guards ...Guard) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, g := range guards {
			if err := g(c); err != nil {
				return err
			}
		}
		return h(c)
	}
}

func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := Authenticated(c); err != nil {
			return err
		}
		return c.Next()
	}
}

func RequireRole(role model.Role) fiber.Handler {
	guard := HasRole(role)
	return func(c *fiber.Ctx) error {
		if err := guard(c); err != nil {
			return err
		}
		return c.Next()
	}
}
