package request

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Lookup reads a parameter from the form body for non-GET requests and falls back
// to the query string. The bool reports presence, even for empty values.
func Lookup(c *fiber.Ctx, key string) (string, bool) {
	if c.Method() != fiber.MethodGet {
		if args := c.Context().PostArgs(); args.Has(key) {
			return string(args.Peek(key)), true
		}
		if form, err := c.MultipartForm(); err == nil {
			if v, ok := form.Value[key]; ok && len(v) > 0 {
				return v[0], true
			}
		}
	}
	if args := c.Context().QueryArgs(); args.Has(key) {
		return string(args.Peek(key)), true
	}
	return "", false
}

func Param(c *fiber.Ctx, key string) string {
	v, _ := Lookup(c, key)
	return v
}

func Trimmed(c *fiber.Ctx, key string) string {
	return strings.TrimSpace(Param(c, key))
}

func Optional(c *fiber.Ctx, key string) *string {
	v, ok := Lookup(c, key)
	if !ok {
		return nil
	}
	return &v
}

// ID parses a positive integer identifier; zero means missing or invalid.
func ID(c *fiber.Ctx, key string) uint {
	n, err := strconv.ParseUint(strings.TrimSpace(Param(c, key)), 10, 32)
	if err != nil {
		return 0
	}
	return uint(n)
}

// Bool mirrors the furnished flag rule: 1, true, yes and on are true.
func Bool(c *fiber.Ctx, key string) bool {
	return Truthy(Param(c, key))
}

func Truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Action returns the dispatch key; it may arrive in the query string even on POST.
func Action(c *fiber.Ctx) string {
	return strings.TrimSpace(Param(c, "action"))
}
