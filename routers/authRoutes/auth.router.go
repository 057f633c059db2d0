package authRoutes

import (
	controllers "ventylab/controllers/auth"
	"ventylab/middleware"
	validators "ventylab/validators/auth"

	"github.com/gofiber/fiber/v2"
)

// SetupAuthRoutes sets up authentication and profile routes
func SetupAuthRoutes(app *fiber.App) {
	authGroup := app.Group("/auth")

	authGroup.Post("/signup", validators.Signup(), controllers.Signup)
	authGroup.Post("/login", controllers.Login)
	authGroup.Post("/change-password", middleware.JWTMiddleware, controllers.ChangePassword)

	userGroup := app.Group("/user")
	userGroup.Get("/profile", middleware.JWTMiddleware, controllers.GetProfile)
}
