package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Machine-readable error codes, each tied to one HTTP status
const (
	CodeValidation      = "VALIDATION_ERROR"       // 400 / 422
	CodeUnauthorized    = "UNAUTHORIZED"           // 401
	CodeForbidden       = "FORBIDDEN"              // 403
	CodeNotFound        = "NOT_FOUND"              // 404
	CodeConflict        = "CONFLICT"               // 409
	CodeRateLimit       = "RATE_LIMIT_EXCEEDED"    // 429
	CodeExternalService = "EXTERNAL_SERVICE_ERROR" // 502
	CodeInternal        = "INTERNAL_ERROR"         // 500
)

// JsonResponse writes the standard success envelope
func JsonResponse(c *fiber.Ctx, statusCode int, success bool, message string, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"success":   success,
		"message":   message,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ErrorResponse writes the error envelope with a stable machine code
func ErrorResponse(c *fiber.Ctx, statusCode int, code string, message string, detail interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"success": false,
		"error": fiber.Map{
			"code":   code,
			"detail": detail,
		},
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ValidationErrorResponse reports field-level validation failures
func ValidationErrorResponse(c *fiber.Ctx, errors map[string]string) error {
	return ErrorResponse(c, fiber.StatusUnprocessableEntity, CodeValidation, "Validation failed!", errors)
}

// Pagination builds the standard pagination block for list responses
func Pagination(page, limit int, total int64) fiber.Map {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return fiber.Map{
		"page":       page,
		"limit":      limit,
		"total":      total,
		"totalPages": totalPages,
		"hasNext":    page < totalPages,
		"hasPrev":    page > 1,
	}
}
