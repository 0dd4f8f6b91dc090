package utils

import "github.com/gofiber/fiber/v2"

// ErrorResponse is the error envelope: a single human-readable string, with
// the HTTP status conveying the category.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SendJSON sends a success payload with the provided status code.
func SendJSON(c *fiber.Ctx, status int, data interface{}) error {
	if status == 0 {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(data)
}

// SendError sends the error envelope with the given status code.
func SendError(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "error"
	}

	return c.Status(status).JSON(ErrorResponse{Error: message})
}
