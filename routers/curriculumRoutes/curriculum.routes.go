package curriculumRoutes

import (
	controllers "ventylab/controllers/curriculum"
	progressControllers "ventylab/controllers/progress"
	"ventylab/middleware"
	validators "ventylab/validators/curriculum"

	"github.com/gofiber/fiber/v2"
)

// SetupCurriculumRoutes sets up the learner-facing curriculum routes
func SetupCurriculumRoutes(app *fiber.App) {
	apiGroup := app.Group("/api", middleware.JWTMiddleware)

	apiGroup.Get("/levels", controllers.GetLevels)
	apiGroup.Get("/modules/:id", validators.ModuleIDParam(), controllers.GetModuleDetail)
	apiGroup.Get("/modules/:id/resume", validators.ModuleIDParam(), progressControllers.GetResume)
	apiGroup.Get("/lessons/:id", validators.LessonIDParam(), controllers.GetLessonDetail)
}
