package curriculumValidator

import (
	"encoding/json"
	"strconv"
	"strings"
	"ventylab/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// paramID parses a positive integer route parameter
func paramID(c *fiber.Ctx, name string) (uint, bool) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// LevelIDParam parses the :id route parameter as a level ID
func LevelIDParam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid level ID!", nil)
		}
		c.Locals("levelID", id)
		return c.Next()
	}
}

// ModuleIDParam parses the :id route parameter as a module ID
func ModuleIDParam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid module ID!", nil)
		}
		c.Locals("moduleID", id)
		return c.Next()
	}
}

// LessonIDParam parses the :id route parameter as a lesson ID
func LessonIDParam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid lesson ID!", nil)
		}
		c.Locals("lessonID", id)
		return c.Next()
	}
}

// StepIDParam parses the :id route parameter as a step ID
func StepIDParam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid step ID!", nil)
		}
		c.Locals("stepID", id)
		return c.Next()
	}
}

// CreateLevel validator middleware
func CreateLevel() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			OrderIndex  int    `json:"order_index"`
			IsOptional  bool   `json:"is_optional"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		if len(strings.TrimSpace(reqData.Title)) < 3 {
			errors["title"] = "Title must be at least 3 characters long!"
		}
		if reqData.OrderIndex < 0 {
			errors["order_index"] = "Order index must not be negative!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedLevel", reqData)
		return c.Next()
	}
}

// UpdateLevel validator middleware
func UpdateLevel() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Title       *string `json:"title"`
			Description *string `json:"description"`
			IsActive    *bool   `json:"is_active"`
			IsOptional  *bool   `json:"is_optional"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request body!", nil)
		}

		if reqData.Title != nil && len(strings.TrimSpace(*reqData.Title)) < 3 {
			return middleware.ValidationErrorResponse(c, map[string]string{"title": "Title must be at least 3 characters long!"})
		}

		c.Locals("validatedLevelUpdate", reqData)
		return c.Next()
	}
}

// Reorder validator middleware, shared by level, module and step reordering
func Reorder() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			OrderedIDs []uint `json:"ordered_ids"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request body!", nil)
		}

		if len(reqData.OrderedIDs) == 0 {
			return middleware.ValidationErrorResponse(c, map[string]string{"ordered_ids": "Ordered IDs must not be empty!"})
		}
		seen := make(map[uint]bool, len(reqData.OrderedIDs))
		for _, id := range reqData.OrderedIDs {
			if id == 0 || seen[id] {
				return middleware.ValidationErrorResponse(c, map[string]string{"ordered_ids": "Ordered IDs must be unique and positive!"})
			}
			seen[id] = true
		}

		c.Locals("validatedReorder", reqData)
		return c.Next()
	}
}

// CreateModule validator middleware
func CreateModule() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			LevelID          *uint  `json:"level_id"`
			Title            string `json:"title"`
			Description      string `json:"description"`
			Difficulty       string `json:"difficulty"`
			OrderIndex       int    `json:"order_index"`
			EstimatedMinutes int    `json:"estimated_minutes"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		if len(strings.TrimSpace(reqData.Title)) < 3 {
			errors["title"] = "Title must be at least 3 characters long!"
		}
		if reqData.Difficulty != "" && validate.Var(reqData.Difficulty, "oneof=BASICO INTERMEDIO AVANZADO") != nil {
			errors["difficulty"] = "Difficulty must be BASICO, INTERMEDIO or AVANZADO!"
		}
		if reqData.OrderIndex < 0 {
			errors["order_index"] = "Order index must not be negative!"
		}
		if reqData.EstimatedMinutes < 0 {
			errors["estimated_minutes"] = "Estimated minutes must not be negative!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedModule", reqData)
		return c.Next()
	}
}

// UpdateModule validator middleware
func UpdateModule() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Title            *string `json:"title"`
			Description      *string `json:"description"`
			Difficulty       *string `json:"difficulty"`
			OrderIndex       *int    `json:"order_index"`
			EstimatedMinutes *int    `json:"estimated_minutes"`
			IsActive         *bool   `json:"is_active"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		if reqData.Title != nil && len(strings.TrimSpace(*reqData.Title)) < 3 {
			errors["title"] = "Title must be at least 3 characters long!"
		}
		if reqData.Difficulty != nil && validate.Var(*reqData.Difficulty, "oneof=BASICO INTERMEDIO AVANZADO") != nil {
			errors["difficulty"] = "Difficulty must be BASICO, INTERMEDIO or AVANZADO!"
		}
		if reqData.OrderIndex != nil && *reqData.OrderIndex < 1 {
			errors["order_index"] = "Order index must be positive!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedModuleUpdate", reqData)
		return c.Next()
	}
}

// CreateLesson validator middleware
func CreateLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			ModuleID     uint   `json:"module_id"`
			Title        string `json:"title"`
			Slug         string `json:"slug"`
			Description  string `json:"description"`
			OrderIndex   int    `json:"order_index"`
			RequiresQuiz bool   `json:"requires_quiz"`
			RequiresCase bool   `json:"requires_case"`
			PassingScore int    `json:"passing_score"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		if reqData.ModuleID == 0 {
			errors["module_id"] = "Module ID is required!"
		}
		if len(strings.TrimSpace(reqData.Title)) < 3 {
			errors["title"] = "Title must be at least 3 characters long!"
		}
		if validate.Var(reqData.Slug, "required,min=3,max=120") != nil || strings.ContainsAny(reqData.Slug, " /") {
			errors["slug"] = "Slug must be 3-120 characters without spaces or slashes!"
		}
		if reqData.PassingScore < 0 || reqData.PassingScore > 100 {
			errors["passing_score"] = "Passing score must be between 0 and 100!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedLesson", reqData)
		return c.Next()
	}
}

// UpdateLesson validator middleware
func UpdateLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Title        *string `json:"title"`
			Slug         *string `json:"slug"`
			Description  *string `json:"description"`
			OrderIndex   *int    `json:"order_index"`
			RequiresQuiz *bool   `json:"requires_quiz"`
			RequiresCase *bool   `json:"requires_case"`
			PassingScore *int    `json:"passing_score"`
			IsActive     *bool   `json:"is_active"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		if reqData.Title != nil && len(strings.TrimSpace(*reqData.Title)) < 3 {
			errors["title"] = "Title must be at least 3 characters long!"
		}
		if reqData.Slug != nil && (validate.Var(*reqData.Slug, "required,min=3,max=120") != nil || strings.ContainsAny(*reqData.Slug, " /")) {
			errors["slug"] = "Slug must be 3-120 characters without spaces or slashes!"
		}
		if reqData.PassingScore != nil && (*reqData.PassingScore < 0 || *reqData.PassingScore > 100) {
			errors["passing_score"] = "Passing score must be between 0 and 100!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedLessonUpdate", reqData)
		return c.Next()
	}
}

// CreateStep validator middleware
func CreateStep() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			LessonID   uint            `json:"lesson_id"`
			StepType   string          `json:"step_type"`
			OrderIndex int             `json:"order_index"`
			Content    json.RawMessage `json:"content"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		if reqData.LessonID == 0 {
			errors["lesson_id"] = "Lesson ID is required!"
		}
		if validate.Var(reqData.StepType, "required,oneof=TEXT IMAGE QUIZ EXERCISE SUMMARY CASE") != nil {
			errors["step_type"] = "Invalid step type!"
		}
		if len(reqData.Content) > 0 && !json.Valid(reqData.Content) {
			errors["content"] = "Content must be valid JSON!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedStep", reqData)
		return c.Next()
	}
}

// UpdateStep validator middleware
func UpdateStep() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			StepType *string         `json:"step_type"`
			Content  json.RawMessage `json:"content"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		if reqData.StepType != nil && validate.Var(*reqData.StepType, "oneof=TEXT IMAGE QUIZ EXERCISE SUMMARY CASE") != nil {
			errors["step_type"] = "Invalid step type!"
		}
		if len(reqData.Content) > 0 && !json.Valid(reqData.Content) {
			errors["content"] = "Content must be valid JSON!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedStepUpdate", reqData)
		return c.Next()
	}
}

// Prerequisite validator middleware, shared by level and module edges
func Prerequisite() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			EntityID   uint `json:"entity_id"`
			RequiredID uint `json:"required_id"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		if reqData.EntityID == 0 {
			errors["entity_id"] = "Entity ID is required!"
		}
		if reqData.RequiredID == 0 {
			errors["required_id"] = "Required ID is required!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedPrerequisite", reqData)
		return c.Next()
	}
}
