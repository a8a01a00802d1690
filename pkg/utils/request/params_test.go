package request

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echo(t *testing.T, method, target string, form url.Values, keys ...string) map[string]interface{} {
	t.Helper()
	app := fiber.New()
	app.All("/", func(c *fiber.Ctx) error {
		out := fiber.Map{"action": Action(c)}
		for _, k := range keys {
			if v := Optional(c, k); v != nil {
				out[k] = *v
			}
		}
		out["id"] = ID(c, "id")
		out["flag"] = Bool(c, "flag")
		return c.JSON(out)
	})

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var got map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	return got
}

func TestLookup_GetReadsQueryOnly(t *testing.T) {
	got := echo(t, fiber.MethodGet, "/?action=search&city=Pune&furnished=&id=7&flag=on", nil, "city", "furnished", "gender")

	assert.Equal(t, "search", got["action"])
	assert.Equal(t, "Pune", got["city"])
	assert.Equal(t, "", got["furnished"])
	assert.NotContains(t, got, "gender")
	assert.Equal(t, float64(7), got["id"])
	assert.Equal(t, true, got["flag"])
}

func TestLookup_PostPrefersBody(t *testing.T) {
	got := echo(t, fiber.MethodPost, "/?action=create&city=Query&id=3", url.Values{"city": {"Body"}}, "city")

	assert.Equal(t, "create", got["action"])
	assert.Equal(t, "Body", got["city"])
	assert.Equal(t, float64(3), got["id"])
}

func TestID_Invalid(t *testing.T) {
	for _, raw := range []string{"", "abc", "-1", "0", "1.5"} {
		got := echo(t, fiber.MethodGet, "/?id="+url.QueryEscape(raw), nil)
		assert.Equal(t, float64(0), got["id"], "id %q", raw)
	}
}

func TestTruthy(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", " yes ", "on"} {
		assert.True(t, Truthy(v), v)
	}
	for _, v := range []string{"", "0", "false", "off", "no", "2"} {
		assert.False(t, Truthy(v), v)
	}
}
