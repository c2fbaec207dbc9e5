package handler

import "github.com/gofiber/fiber/v2"

// Error writes the standard error envelope used across the API, matching the
// shape the permission middleware emits on deny.
func Error(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}
