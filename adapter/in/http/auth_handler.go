package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"assistant_server/core/service/auth"
	"assistant_server/pkg/logger"
)

// AuthHandler exposes the OAuth login flow and session endpoints.
type AuthHandler struct {
	auth        *auth.Service
	sessions    fiber.Handler
	frontendURL string
}

// NewAuthHandler creates the handler. sessionAuth guards the authenticated
// endpoints.
func NewAuthHandler(authService *auth.Service, sessionAuth fiber.Handler, frontendURL string) *AuthHandler {
	return &AuthHandler{
		auth:        authService,
		sessions:    sessionAuth,
		frontendURL: frontendURL,
	}
}

// Register mounts the auth routes.
func (h *AuthHandler) Register(app fiber.Router) {
	grp := app.Group("/auth")
	grp.Get("/login", h.Login)
	grp.Get("/callback", h.Callback)
	grp.Get("/me", h.sessions, h.Me)
	grp.Post("/logout", h.sessions, h.Logout)
}

// Login starts the OAuth flow and returns the consent URL.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	url, state, err := h.auth.AuthURL(c.Context())
	if err != nil {
		return err
	}

	logger.Info("OAuth login initiated")
	return c.JSON(fiber.Map{
		"authorization_url": url,
		"state":             state,
	})
}

// Callback completes the OAuth flow and redirects to the frontend login page
// with either a session token or an error marker. The frontend stores the
// token; failures never leak details into the redirect.
func (h *AuthHandler) Callback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")

	token, err := h.auth.HandleCallback(c.Context(), code, state)
	if err != nil {
		logger.WithError(err).Error("OAuth callback failed")
		return c.Redirect(fmt.Sprintf("%s/login?error=auth_failed", h.frontendURL), fiber.StatusTemporaryRedirect)
	}

	return c.Redirect(fmt.Sprintf("%s/login?token=%s", h.frontendURL, token), fiber.StatusTemporaryRedirect)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	sess, err := CurrentSession(c)
	if err != nil {
		return err
	}
	profile := sess.User.Profile()
	return c.JSON(profile)
}

// Logout invalidates the session.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token, err := SessionToken(c)
	if err != nil {
		return err
	}
	if err := h.auth.Logout(c.Context(), token); err != nil {
		return err
	}
	logger.Info("User logged out")
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}
