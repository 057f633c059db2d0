package changelogRoutes

import (
	controllers "ventylab/controllers/changelog"
	"ventylab/middleware"
	"ventylab/models"
	validators "ventylab/validators/changelog"

	"github.com/gofiber/fiber/v2"
)

// SetupChangelogRoutes sets up the content audit trail routes,
// restricted to teaching staff.
func SetupChangelogRoutes(app *fiber.App) {
	staff := middleware.RequireRole(models.RoleTeacher, models.RoleAdmin, models.RoleSuperAdmin)

	changelogGroup := app.Group("/api/changelog", middleware.JWTMiddleware, staff,
		middleware.CheckPermissionMiddleware("view-changelog"))

	changelogGroup.Get("/", validators.ListFilters(), controllers.ListChangelog)
	changelogGroup.Get("/recent", controllers.GetRecentChanges)
	changelogGroup.Get("/stats", controllers.GetChangelogStats)
	changelogGroup.Get("/:entityType/:entityId", validators.EntityParams(), controllers.GetEntityHistory)
}
