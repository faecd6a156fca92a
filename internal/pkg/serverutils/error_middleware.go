// FILE: internal/pkg/serverutils/error_middleware.go
package serverutils

import (
	"errors"

	"exam-grading-be/internal/apperror"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts typed application errors into a uniform
// JSON envelope. Handlers can return raw errors and rely on this mapping.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"success": false,
				"error":   fiberErr.Message,
			})
		}

		status := statusForCode(apperror.CodeOf(err))
		return c.Status(status).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"code":    string(apperror.CodeOf(err)),
		})
	}
}

func statusForCode(code apperror.Code) int {
	switch code {
	case apperror.CodeValidation, apperror.CodeBadRequest:
		return fiber.StatusBadRequest
	case apperror.CodeNotFound:
		return fiber.StatusNotFound
	case apperror.CodeAuth:
		return fiber.StatusUnauthorized
	case apperror.CodeRateLimited:
		return fiber.StatusTooManyRequests
	case apperror.CodePoolExhausted:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
