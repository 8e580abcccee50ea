package http

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterHealth mounts the root and health-check endpoints.
func RegisterHealth(app *fiber.App) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "AI Email Assistant API",
			"status":  "running",
		})
	})
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})
}
