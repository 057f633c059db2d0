package changelogValidator

import (
	"strconv"
	"strings"
	"time"
	"ventylab/middleware"
	"ventylab/models"

	"github.com/gofiber/fiber/v2"
)

// ListFilters validates the optional from/to time range on changelog
// listings; parsed values are handed to the controller via locals
func ListFilters() fiber.Handler {
	return func(c *fiber.Ctx) error {
		errors := make(map[string]string)
		if from := c.Query("from"); from != "" {
			t, err := time.Parse(time.RFC3339, from)
			if err != nil {
				errors["from"] = "From must be an RFC3339 timestamp!"
			} else {
				c.Locals("fromTime", t)
			}
		}
		if to := c.Query("to"); to != "" {
			t, err := time.Parse(time.RFC3339, to)
			if err != nil {
				errors["to"] = "To must be an RFC3339 timestamp!"
			} else {
				c.Locals("toTime", t)
			}
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}
		return c.Next()
	}
}

// EntityParams parses the :entityType/:entityId route parameters for
// entity history lookups
func EntityParams() fiber.Handler {
	return func(c *fiber.Ctx) error {
		entityType := strings.ToUpper(c.Params("entityType"))
		switch entityType {
		case models.EntityLevel, models.EntityModule, models.EntityLesson, models.EntityStep:
		default:
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid entity type!", nil)
		}

		id, err := strconv.ParseUint(c.Params("entityId"), 10, 32)
		if err != nil || id == 0 {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid entity ID!", nil)
		}

		c.Locals("entityType", entityType)
		c.Locals("entityID", uint(id))
		return c.Next()
	}
}
