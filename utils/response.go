// utils/response.go - Uniform API response envelope
package utils

import "github.com/gofiber/fiber/v2"

// Success writes the standard success envelope. data may be nil.
func Success(c *fiber.Ctx, status int, message string, data interface{}) error {
	body := fiber.Map{
		"success": true,
		"message": message,
	}
	if message == "" {
		body["message"] = "Request completed successfully"
	}
	if data != nil {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}

// Fail writes the standard failure envelope. message carries the first error
// encountered.
func Fail(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "Something went wrong"
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
