package aiValidator

import (
	"strings"
	"ventylab/ai"
	"ventylab/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// Analysis validator middleware for ventilator-configuration submissions
func Analysis() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			PatientContext    string              `json:"patient_context"`
			UserParams        ai.VentilatorParams `json:"user_params"`
			OptimalParams     ai.VentilatorParams `json:"optimal_params"`
			PreferredProvider string              `json:"preferred_provider"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		if strings.TrimSpace(reqData.UserParams.Mode) == "" {
			errors["user_params.mode"] = "Ventilation mode is required!"
		}
		if strings.TrimSpace(reqData.OptimalParams.Mode) == "" {
			errors["optimal_params.mode"] = "Reference ventilation mode is required!"
		}
		if validate.Var(reqData.UserParams.FiO2, "gte=0,lte=100") != nil {
			errors["user_params.fio2"] = "FiO2 must be between 0 and 100!"
		}
		if reqData.PreferredProvider != "" &&
			validate.Var(strings.ToLower(reqData.PreferredProvider), "oneof=gemini openai claude") != nil {
			errors["preferred_provider"] = "Preferred provider must be gemini, openai or claude!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedAnalysis", reqData)
		return c.Next()
	}
}
