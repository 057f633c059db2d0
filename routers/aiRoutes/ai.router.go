package aiRoutes

import (
	"time"
	controllers "ventylab/controllers/ai"
	"ventylab/middleware"
	validators "ventylab/validators/ai"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// SetupAIRoutes sets up the AI analysis routes. A per-client limiter sits
// in front of the per-provider limits inside the dispatcher.
func SetupAIRoutes(app *fiber.App) {
	aiGroup := app.Group("/api/ai", middleware.JWTMiddleware, limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Minute,
	}))

	aiGroup.Post("/analyze", validators.Analysis(), controllers.AnalyzeVentilatorConfig)
	aiGroup.Get("/providers", controllers.GetProviderStatus)
}
