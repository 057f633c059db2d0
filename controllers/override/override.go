package overrideController

import (
	"encoding/json"
	"time"
	"ventylab/database"
	"ventylab/middleware"
	"ventylab/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

// UpsertOverride handles POST /api/overrides: a teacher creates or
// replaces the override for one (student, entity) pair. An override only
// ever affects the student it targets.
func UpsertOverride(c *fiber.Ctx) error {
	actor, ok := c.Locals("authUser").(models.User)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedOverride").(*struct {
		StudentID  uint            `json:"student_id"`
		EntityType string          `json:"entity_type"`
		EntityID   uint            `json:"entity_id"`
		Payload    json.RawMessage `json:"payload"`
	})
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request data!", nil)
	}

	var student models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ? AND role = ?", reqData.StudentID, false, models.RoleStudent).
		First(&student).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, middleware.CodeNotFound, "Student not found!", nil)
	}

	// reject malformed payloads before persisting
	var payload OverridePayload
	if err := json.Unmarshal(reqData.Payload, &payload); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid override payload!", nil)
	}

	override := models.ContentOverride{
		StudentID:  reqData.StudentID,
		EntityType: reqData.EntityType,
		EntityID:   reqData.EntityID,
		CreatedBy:  actor.ID,
		Payload:    datatypes.JSON(reqData.Payload),
		IsActive:   true,
	}

	err := database.Database.Db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "student_id"}, {Name: "entity_type"}, {Name: "entity_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"payload":    datatypes.JSON(reqData.Payload),
			"created_by": actor.ID,
			"is_active":  true,
			"is_deleted": false,
			"updated_at": time.Now(),
		}),
	}).Create(&override).Error
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to save override!", nil)
	}

	var stored models.ContentOverride
	database.Database.Db.Where("student_id = ? AND entity_type = ? AND entity_id = ?",
		reqData.StudentID, reqData.EntityType, reqData.EntityID).First(&stored)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Override saved successfully!", stored)
}

// DeactivateOverride handles DELETE /api/overrides/:id. Soft deactivate,
// the shared content is untouched. Teachers may only deactivate their
// own overrides; admins any.
func DeactivateOverride(c *fiber.Ctx) error {
	actor, ok := c.Locals("authUser").(models.User)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	overrideID, ok := c.Locals("overrideID").(uint)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid override ID!", nil)
	}

	var override models.ContentOverride
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", overrideID, false).First(&override).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, middleware.CodeNotFound, "Override not found!", nil)
	}

	if actor.Role == models.RoleTeacher && override.CreatedBy != actor.ID {
		return middleware.ErrorResponse(c, fiber.StatusForbidden, middleware.CodeForbidden, "You can only deactivate your own overrides!", nil)
	}

	override.IsActive = false
	if err := database.Database.Db.Save(&override).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to deactivate override!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Override deactivated successfully!", override)
}

// ListStudentOverrides handles GET /api/overrides/student/:id
func ListStudentOverrides(c *fiber.Ctx) error {
	if _, ok := c.Locals("authUser").(models.User); !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	studentID, ok := c.Locals("studentID").(uint)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid student ID!", nil)
	}

	var overrides []models.ContentOverride
	if err := database.Database.Db.Where("student_id = ? AND is_deleted = ?", studentID, false).
		Order("updated_at desc").Find(&overrides).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to fetch overrides!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Overrides fetched successfully!", overrides)
}
