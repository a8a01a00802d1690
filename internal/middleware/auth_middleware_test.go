package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"pgfinder_backend/internal/model"
	"pgfinder_backend/pkg/utils/jwt"
	"pgfinder_backend/pkg/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(check ActiveCheck) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler})
	app.Use(Identify(check))

	app.Get("/whoami", func(c *fiber.Ctx) error {
		id, ok := CurrentIdentity(c)
		if !ok {
			return response.OK(c, "anonymous", nil)
		}
		return response.OK(c, "identified", id)
	})
	app.Get("/private", RequireAuth(), func(c *fiber.Ctx) error {
		return response.OK(c, "ok", nil)
	})
	app.Get("/landlord", RequireRole(model.RoleLandlord), func(c *fiber.Ctx) error {
		return response.OK(c, "ok", nil)
	})
	app.Get("/guarded", Guarded(func(c *fiber.Ctx) error {
		return response.OK(c, "ok", nil)
	}, Authenticated, HasRole(model.RoleAdmin)))
	return app
}

func call(t *testing.T, app *fiber.App, path, token string) (int, response.Envelope) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env response.Envelope
	require.NoError(t, json.Unmarshal(body, &env))
	return resp.StatusCode, env
}

func token(t *testing.T, id uint, role model.Role) string {
	t.Helper()
	tok, err := jwt.GenerateToken(id, "Ravi", "ravi@example.com", string(role))
	require.NoError(t, err)
	return tok
}

func TestIdentify_Anonymous(t *testing.T) {
	jwt.Init("mw-secret", time.Hour)
	app := newApp(nil)

	status, env := call(t, app, "/whoami", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "anonymous", env.Message)

	status, env = call(t, app, "/whoami", "garbage")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "anonymous", env.Message)
}

func TestIdentify_ValidToken(t *testing.T) {
	jwt.Init("mw-secret", time.Hour)
	app := newApp(nil)

	status, env := call(t, app, "/whoami", token(t, 7, model.RoleTenant))

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "identified", env.Message)
	data := env.Data.(map[string]interface{})
	assert.Equal(t, float64(7), data["user_id"])
	assert.Equal(t, "tenant", data["role"])
}

func TestIdentify_InactiveUserIsAnonymous(t *testing.T) {
	jwt.Init("mw-secret", time.Hour)
	app := newApp(func(_ context.Context, userID uint) (bool, error) {
		return userID != 9, nil
	})

	_, env := call(t, app, "/whoami", token(t, 9, model.RoleLandlord))
	assert.Equal(t, "anonymous", env.Message)

	_, env = call(t, app, "/whoami", token(t, 3, model.RoleLandlord))
	assert.Equal(t, "identified", env.Message)
}

func TestRequireAuth(t *testing.T) {
	jwt.Init("mw-secret", time.Hour)
	app := newApp(nil)

	status, env := call(t, app, "/private", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.False(t, env.Success)
	assert.Equal(t, "Authentication required. Please login.", env.Message)

	status, env = call(t, app, "/private", token(t, 1, model.RoleTenant))
	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, env.Success)
}

func TestRequireRole(t *testing.T) {
	jwt.Init("mw-secret", time.Hour)
	app := newApp(nil)

	status, _ := call(t, app, "/landlord", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, env := call(t, app, "/landlord", token(t, 1, model.RoleTenant))
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "Access denied", env.Message)

	status, _ = call(t, app, "/landlord", token(t, 1, model.RoleLandlord))
	assert.Equal(t, fiber.StatusOK, status)
}

func TestGuarded_FirstDenialWins(t *testing.T) {
	jwt.Init("mw-secret", time.Hour)
	app := newApp(nil)

	status, _ := call(t, app, "/guarded", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = call(t, app, "/guarded", token(t, 2, model.RoleLandlord))
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = call(t, app, "/guarded", token(t, 2, model.RoleAdmin))
	assert.Equal(t, fiber.StatusOK, status)
}
