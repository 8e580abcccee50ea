package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"assistant_server/core/port/out"
	"assistant_server/pkg/apperr"
)

// Locals keys set by SessionAuth.
const (
	LocalSessionToken = "session_token"
	LocalSession      = "session"
)

// SessionAuth validates the session token on protected routes. The token is
// taken from the `token` query parameter or an Authorization bearer header.
func SessionAuth(sessions out.SessionStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractToken(c)
		if token == "" {
			return apperr.Unauthorized("Missing session token")
		}

		sess, err := sessions.Get(c.Context(), token)
		if err != nil {
			return apperr.Internal("failed to load session").WithError(err)
		}
		if sess == nil {
			return apperr.Unauthorized("Invalid or expired session")
		}

		c.Locals(LocalSessionToken, token)
		c.Locals(LocalSession, sess)
		return c.Next()
	}
}

func extractToken(c *fiber.Ctx) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	auth := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
