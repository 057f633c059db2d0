package overrideRoutes

import (
	controllers "ventylab/controllers/override"
	"ventylab/middleware"
	"ventylab/models"
	validators "ventylab/validators/override"

	"github.com/gofiber/fiber/v2"
)

// SetupOverrideRoutes sets up per-student content override routes,
// restricted to teaching staff.
func SetupOverrideRoutes(app *fiber.App) {
	staff := middleware.RequireRole(models.RoleTeacher, models.RoleAdmin, models.RoleSuperAdmin)

	overrideGroup := app.Group("/api/overrides", middleware.JWTMiddleware, staff,
		middleware.CheckPermissionMiddleware("manage-overrides"))

	overrideGroup.Post("/", validators.Upsert(), controllers.UpsertOverride)
	overrideGroup.Get("/student/:id", validators.StudentIDParam(), controllers.ListStudentOverrides)
	overrideGroup.Delete("/:id", validators.OverrideIDParam(), controllers.DeactivateOverride)
}
