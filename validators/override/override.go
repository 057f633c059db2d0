package overrideValidator

import (
	"encoding/json"
	"strconv"
	"ventylab/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// Upsert validator middleware
func Upsert() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			StudentID  uint            `json:"student_id"`
			EntityType string          `json:"entity_type"`
			EntityID   uint            `json:"entity_id"`
			Payload    json.RawMessage `json:"payload"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		if reqData.StudentID == 0 {
			errors["student_id"] = "Student ID is required!"
		}
		if validate.Var(reqData.EntityType, "required,oneof=LEVEL MODULE LESSON STEP") != nil {
			errors["entity_type"] = "Entity type must be LEVEL, MODULE, LESSON or STEP!"
		}
		if reqData.EntityID == 0 {
			errors["entity_id"] = "Entity ID is required!"
		}
		if len(reqData.Payload) == 0 || !json.Valid(reqData.Payload) {
			errors["payload"] = "Payload must be a valid JSON object!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedOverride", reqData)
		return c.Next()
	}
}

// OverrideIDParam parses the :id route parameter as an override ID
func OverrideIDParam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 32)
		if err != nil || id == 0 {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid override ID!", nil)
		}
		c.Locals("overrideID", uint(id))
		return c.Next()
	}
}

// StudentIDParam parses the :id route parameter as a student ID
func StudentIDParam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 32)
		if err != nil || id == 0 {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid student ID!", nil)
		}
		c.Locals("studentID", uint(id))
		return c.Next()
	}
}
