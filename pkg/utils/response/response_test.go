package response

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(t *testing.T, h fiber.Handler) (int, string) {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/", h)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestEnvelopes(t *testing.T) {
	status, body := call(t, func(c *fiber.Ctx) error { return OK(c, "done", fiber.Map{"n": 1}) })
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"success":true,"message":"done","data":{"n":1}}`, body)

	status, body = call(t, func(c *fiber.Ctx) error { return Created(c, "made", nil) })
	assert.Equal(t, fiber.StatusCreated, status)
	assert.JSONEq(t, `{"success":true,"message":"made"}`, body)

	status, body = call(t, func(c *fiber.Ctx) error { return Fail(c, fiber.StatusNotFound, "Listing not found") })
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.JSONEq(t, `{"success":false,"message":"Listing not found"}`, body)
}

func TestErrorHandler(t *testing.T) {
	status, body := call(t, func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusForbidden, "Access denied") })
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.JSONEq(t, `{"success":false,"message":"Access denied"}`, body)

	status, body = call(t, func(c *fiber.Ctx) error { return errors.New("pq: connection reset") })
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.JSONEq(t, `{"success":false,"message":"Internal server error"}`, body)
}
