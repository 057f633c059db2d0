package aiController

import (
	"ventylab/ai"
	"ventylab/middleware"

	"github.com/gofiber/fiber/v2"
)

var manager *ai.Manager

// Setup injects the provider manager built in main
func Setup(m *ai.Manager) {
	manager = m
}

// AnalyzeVentilatorConfig compares a learner's ventilator settings against
// the reference settings through the configured provider chain.
func AnalyzeVentilatorConfig(c *fiber.Ctx) error {
	if _, ok := c.Locals("userId").(uint); !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedAnalysis").(*struct {
		PatientContext    string              `json:"patient_context"`
		UserParams        ai.VentilatorParams `json:"user_params"`
		OptimalParams     ai.VentilatorParams `json:"optimal_params"`
		PreferredProvider string              `json:"preferred_provider"`
	})
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request data!", nil)
	}

	if manager == nil {
		return middleware.ErrorResponse(c, fiber.StatusServiceUnavailable, middleware.CodeExternalService, "AI analysis is not configured!", nil)
	}

	prompt := ai.BuildVentilatorAnalysisPrompt(ai.AnalysisInput{
		PatientContext: reqData.PatientContext,
		UserParams:     reqData.UserParams,
		OptimalParams:  reqData.OptimalParams,
	})

	result := manager.Dispatch(ai.Request{
		Prompt:            prompt,
		PreferredProvider: reqData.PreferredProvider,
	})

	if result.Success {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Analysis completed successfully!", result)
	}

	if result.RetryAfterSeconds > 0 {
		return middleware.ErrorResponse(c, fiber.StatusTooManyRequests, middleware.CodeRateLimit,
			"All AI providers are rate limited, try again later!", fiber.Map{
				"retryAfter":         result.RetryAfterSeconds,
				"attemptedProviders": result.AttemptedProviders,
			})
	}

	return middleware.ErrorResponse(c, fiber.StatusBadGateway, middleware.CodeExternalService,
		"AI analysis is currently unavailable!", fiber.Map{
			"attemptedProviders": result.AttemptedProviders,
		})
}

// GetProviderStatus lists the configured provider chain in dispatch order
func GetProviderStatus(c *fiber.Ctx) error {
	if _, ok := c.Locals("userId").(uint); !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	if manager == nil {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Providers fetched successfully!", fiber.Map{
			"providers": []string{},
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Providers fetched successfully!", fiber.Map{
		"providers": manager.Providers(),
	})
}
