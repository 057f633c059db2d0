package curriculumRoutes

import (
	controllers "ventylab/controllers/curriculum"
	"ventylab/middleware"
	"ventylab/models"
	validators "ventylab/validators/curriculum"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminCurriculumRoutes sets up content authoring routes, restricted
// to teaching staff.
func SetupAdminCurriculumRoutes(app *fiber.App) {
	staff := middleware.RequireRole(models.RoleTeacher, models.RoleAdmin, models.RoleSuperAdmin)

	// Level management
	levelGroup := app.Group("/admin/levels", middleware.JWTMiddleware, staff)
	levelGroup.Get("/", controllers.AdminListLevels)
	levelGroup.Post("/", validators.CreateLevel(), controllers.AdminCreateLevel)
	levelGroup.Post("/reorder", validators.Reorder(), controllers.AdminReorderLevels)
	levelGroup.Post("/prerequisites", validators.Prerequisite(), controllers.AdminAddLevelPrerequisite)
	levelGroup.Delete("/prerequisites", validators.Prerequisite(), controllers.AdminRemoveLevelPrerequisite)
	levelGroup.Put("/:id", validators.LevelIDParam(), validators.UpdateLevel(), controllers.AdminUpdateLevel)
	levelGroup.Delete("/:id", validators.LevelIDParam(), controllers.AdminDeleteLevel)
	levelGroup.Post("/:id/modules/reorder", validators.LevelIDParam(), validators.Reorder(), controllers.AdminReorderModules)

	// Module management
	moduleGroup := app.Group("/admin/modules", middleware.JWTMiddleware, staff)
	moduleGroup.Get("/", controllers.AdminListModules)
	moduleGroup.Post("/", validators.CreateModule(), controllers.AdminCreateModule)
	moduleGroup.Post("/prerequisites", validators.Prerequisite(), controllers.AdminAddModulePrerequisite)
	moduleGroup.Delete("/prerequisites", validators.Prerequisite(), controllers.AdminRemoveModulePrerequisite)
	moduleGroup.Put("/:id", validators.ModuleIDParam(), validators.UpdateModule(), controllers.AdminUpdateModule)
	moduleGroup.Delete("/:id", validators.ModuleIDParam(), controllers.AdminDeleteModule)

	// Lesson management
	lessonGroup := app.Group("/admin/lessons", middleware.JWTMiddleware, staff)
	lessonGroup.Post("/", validators.CreateLesson(), controllers.AdminCreateLesson)
	lessonGroup.Put("/:id", validators.LessonIDParam(), validators.UpdateLesson(), controllers.AdminUpdateLesson)
	lessonGroup.Delete("/:id", validators.LessonIDParam(), controllers.AdminDeleteLesson)
	lessonGroup.Post("/:id/publish", validators.LessonIDParam(), controllers.AdminPublishLesson)
	lessonGroup.Post("/:id/unpublish", validators.LessonIDParam(), controllers.AdminUnpublishLesson)
	lessonGroup.Get("/:id/revisions", validators.LessonIDParam(), controllers.AdminListLessonRevisions)
	lessonGroup.Get("/:id/steps", validators.LessonIDParam(), controllers.AdminListSteps)
	lessonGroup.Post("/:id/steps/reorder", validators.LessonIDParam(), validators.Reorder(), controllers.AdminReorderSteps)

	// Step management
	stepGroup := app.Group("/admin/steps", middleware.JWTMiddleware, staff)
	stepGroup.Post("/", validators.CreateStep(), controllers.AdminCreateStep)
	stepGroup.Put("/:id", validators.StepIDParam(), validators.UpdateStep(), controllers.AdminUpdateStep)
	stepGroup.Delete("/:id", validators.StepIDParam(), controllers.AdminDeleteStep)
}
