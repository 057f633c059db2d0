package progressValidator

import (
	"strconv"
	"ventylab/controllers/progress"
	"ventylab/middleware"

	"github.com/gofiber/fiber/v2"
)

// StepUpdate validator middleware
func StepUpdate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			LessonID       uint  `json:"lessonId"`
			StepIndex      int   `json:"stepIndex"`
			Percent        int   `json:"percent"`
			TimeSpentDelta int64 `json:"timeSpentDelta"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		if reqData.LessonID == 0 {
			errors["lessonId"] = "Lesson ID is required!"
		}
		if reqData.StepIndex < 0 {
			errors["stepIndex"] = "Step index must not be negative!"
		}
		if reqData.TimeSpentDelta < 0 {
			errors["timeSpentDelta"] = "Time spent delta must not be negative!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedStepUpdate", &progressController.StepProgressUpdate{
			LessonID:        reqData.LessonID,
			StepIndex:       reqData.StepIndex,
			PercentComplete: reqData.Percent,
			TimeSpentDelta:  reqData.TimeSpentDelta,
		})
		return c.Next()
	}
}

// LessonComplete validator middleware
func LessonComplete() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			LessonID uint `json:"lesson_id"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request body!", nil)
		}

		if reqData.LessonID == 0 {
			return middleware.ValidationErrorResponse(c, map[string]string{"lesson_id": "Lesson ID is required!"})
		}

		c.Locals("validatedLessonComplete", reqData)
		return c.Next()
	}
}

// ModuleIDParam parses the module ID route parameter for resume lookups
func ModuleIDParam(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params(name), 10, 32)
		if err != nil || id == 0 {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid module ID!", nil)
		}
		c.Locals("moduleID", uint(id))
		return c.Next()
	}
}
