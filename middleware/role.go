package middleware

import (
	"ventylab/database"
	"ventylab/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RequireRole returns a middleware that loads the authenticated user and
// checks the role against the allowed set. The full user row is stored in
// c.Locals("authUser") for downstream handlers.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userId").(uint)
		if !ok {
			return ErrorResponse(c, fiber.StatusUnauthorized, CodeUnauthorized, "Unauthorized: User ID not found", nil)
		}

		var user models.User
		if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
			return ErrorResponse(c, fiber.StatusUnauthorized, CodeUnauthorized, "User not found!", nil)
		}

		for _, role := range roles {
			if user.Role == role {
				c.Locals("authUser", user)
				return c.Next()
			}
		}

		return ErrorResponse(c, fiber.StatusForbidden, CodeForbidden, "You do not have permission to access this resource!", nil)
	}
}

// CheckPermissionMiddleware checks an explicit per-user permission row
func CheckPermissionMiddleware(requiredPermission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userId").(uint)
		if !ok {
			return ErrorResponse(c, fiber.StatusUnauthorized, CodeUnauthorized, "Unauthorized: User ID not found", nil)
		}

		var permission models.Permission
		err := database.Database.Db.Where("user_id = ? AND permission = ? AND is_deleted = false",
			userID, requiredPermission).First(&permission).Error

		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrorResponse(c, fiber.StatusForbidden, CodeForbidden, "You do not have permission to access this resource!", nil)
			}
			return ErrorResponse(c, fiber.StatusInternalServerError, CodeInternal, "Server error while checking permissions!", nil)
		}

		return c.Next()
	}
}
