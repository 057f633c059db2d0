package progressRoutes

import (
	controllers "ventylab/controllers/progress"
	"ventylab/middleware"
	validators "ventylab/validators/progress"

	"github.com/gofiber/fiber/v2"
)

// SetupProgressRoutes sets up learner progress tracking routes
func SetupProgressRoutes(app *fiber.App) {
	progressGroup := app.Group("/api/progress", middleware.JWTMiddleware)

	progressGroup.Post("/step/update", validators.StepUpdate(), controllers.UpdateStepProgress)
	progressGroup.Post("/lesson/complete", validators.LessonComplete(), controllers.CompleteLessonHandler)
	progressGroup.Get("/overview", controllers.GetOverview)
	progressGroup.Get("/resume/:moduleId", validators.ModuleIDParam("moduleId"), controllers.GetResume)
}
