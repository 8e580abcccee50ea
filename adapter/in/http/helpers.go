// Package http contains the inbound HTTP handlers.
package http

import (
	"github.com/gofiber/fiber/v2"

	"assistant_server/core/domain"
	"assistant_server/infra/middleware"
	"assistant_server/pkg/apperr"
)

// SessionToken returns the session token set by the auth middleware.
func SessionToken(c *fiber.Ctx) (string, error) {
	token, _ := c.Locals(middleware.LocalSessionToken).(string)
	if token == "" {
		return "", apperr.Unauthorized("Missing session token")
	}
	return token, nil
}

// CurrentSession returns the session set by the auth middleware.
func CurrentSession(c *fiber.Ctx) (*domain.Session, error) {
	sess, _ := c.Locals(middleware.LocalSession).(*domain.Session)
	if sess == nil {
		return nil, apperr.Unauthorized("Invalid or expired session")
	}
	return sess, nil
}
