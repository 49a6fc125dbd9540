// Package middleware carries the cross-cutting fiber handlers: bearer-token
// authentication and request logging.
package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Auth enforces `Authorization: Bearer <apiKey>` on every request it
// guards. An empty apiKey disables the check entirely, matching an unset
// api.api_key in the config.
func Auth(apiKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if apiKey == "" {
			return c.Next()
		}

		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Missing Authorization header")
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid Authorization header format")
		}

		// Constant-time compare so the check leaks nothing about the key.
		if subtle.ConstantTimeCompare([]byte(header[len(prefix):]), []byte(apiKey)) != 1 {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid API key")
		}
		return c.Next()
	}
}
