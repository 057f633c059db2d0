package curriculumController

import (
	"ventylab/database"
	"ventylab/middleware"
	"ventylab/models"
	"ventylab/models/curriculum"
	"ventylab/utils"

	"github.com/gofiber/fiber/v2"
)

// AdminCreateLevel creates a new curriculum level
func AdminCreateLevel(c *fiber.Ctx) error {
	actor, ok := c.Locals("authUser").(models.User)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedLevel").(*struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		OrderIndex  int    `json:"order_index"`
		IsOptional  bool   `json:"is_optional"`
	})
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request data!", nil)
	}

	db := database.Database.Db

	// Pick the next order index if not provided
	orderIndex := reqData.OrderIndex
	if orderIndex == 0 {
		var maxOrder int
		db.Model(&curriculum.Level{}).Where("is_deleted = ?", false).
			Select("COALESCE(MAX(order_index), 0)").Scan(&maxOrder)
		orderIndex = maxOrder + 1
	} else {
		var count int64
		db.Model(&curriculum.Level{}).Where("order_index = ? AND is_deleted = ?", orderIndex, false).Count(&count)
		if count > 0 {
			return middleware.ErrorResponse(c, fiber.StatusConflict, middleware.CodeConflict, "A level with this order already exists!", nil)
		}
	}

	var duplicate int64
	db.Model(&curriculum.Level{}).Where("title = ? AND is_deleted = ?", reqData.Title, false).Count(&duplicate)
	if duplicate > 0 {
		return middleware.ErrorResponse(c, fiber.StatusConflict, middleware.CodeConflict, "A level with this title already exists!", nil)
	}

	level := curriculum.Level{
		Title:       reqData.Title,
		Description: reqData.Description,
		OrderIndex:  orderIndex,
		IsOptional:  reqData.IsOptional,
		IsActive:    true,
	}

	if err := db.Create(&level).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to create level!", nil)
	}

	utils.RecordContentChange(db, models.EntityLevel, level.ID, models.ActionCreate, actor.ID, actor.Role, nil)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Level created successfully!", level)
}

// AdminUpdateLevel updates an existing level
func AdminUpdateLevel(c *fiber.Ctx) error {
	actor, ok := c.Locals("authUser").(models.User)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	levelID, ok := c.Locals("levelID").(uint)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid level ID!", nil)
	}

	reqData, ok := c.Locals("validatedLevelUpdate").(*struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		IsActive    *bool   `json:"is_active"`
		IsOptional  *bool   `json:"is_optional"`
	})
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var level curriculum.Level
	if err := db.Where("id = ? AND is_deleted = ?", levelID, false).First(&level).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, middleware.CodeNotFound, "Level not found!", nil)
	}

	diff := map[string]utils.FieldChange{}
	if reqData.Title != nil && *reqData.Title != level.Title {
		var duplicate int64
		db.Model(&curriculum.Level{}).Where("title = ? AND id != ? AND is_deleted = ?", *reqData.Title, levelID, false).Count(&duplicate)
		if duplicate > 0 {
			return middleware.ErrorResponse(c, fiber.StatusConflict, middleware.CodeConflict, "A level with this title already exists!", nil)
		}
		utils.DiffStrings(diff, "title", level.Title, *reqData.Title)
		level.Title = *reqData.Title
	}
	if reqData.Description != nil {
		utils.DiffStrings(diff, "description", level.Description, *reqData.Description)
		level.Description = *reqData.Description
	}
	if reqData.IsActive != nil {
		utils.DiffBools(diff, "is_active", level.IsActive, *reqData.IsActive)
		level.IsActive = *reqData.IsActive
	}
	if reqData.IsOptional != nil {
		utils.DiffBools(diff, "is_optional", level.IsOptional, *reqData.IsOptional)
		level.IsOptional = *reqData.IsOptional
	}

	if err := db.Save(&level).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to update level!", nil)
	}

	if len(diff) > 0 {
		utils.RecordContentChange(db, models.EntityLevel, level.ID, models.ActionUpdate, actor.ID, actor.Role, diff)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Level updated successfully!", level)
}

// AdminDeleteLevel soft deletes a level
func AdminDeleteLevel(c *fiber.Ctx) error {
	actor, ok := c.Locals("authUser").(models.User)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	levelID, ok := c.Locals("levelID").(uint)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid level ID!", nil)
	}

	db := database.Database.Db

	var level curriculum.Level
	if err := db.Where("id = ? AND is_deleted = ?", levelID, false).First(&level).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, middleware.CodeNotFound, "Level not found!", nil)
	}

	level.IsDeleted = true
	if err := db.Save(&level).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to delete level!", nil)
	}

	utils.RecordContentChange(db, models.EntityLevel, level.ID, models.ActionDelete, actor.ID, actor.Role, nil)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Level deleted successfully!", nil)
}

// AdminListLevels lists all levels including inactive ones
func AdminListLevels(c *fiber.Ctx) error {
	if _, ok := c.Locals("authUser").(models.User); !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	var levels []curriculum.Level
	if err := database.Database.Db.Where("is_deleted = ?", false).Order("order_index asc").Find(&levels).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to fetch levels!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Levels fetched successfully!", levels)
}

// AdminReorderLevels applies a full ordering: the body carries every
// active level ID in the desired order.
func AdminReorderLevels(c *fiber.Ctx) error {
	actor, ok := c.Locals("authUser").(models.User)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedReorder").(*struct {
		OrderedIDs []uint `json:"ordered_ids"`
	})
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var count int64
	db.Model(&curriculum.Level{}).Where("is_deleted = ?", false).Count(&count)
	if int(count) != len(reqData.OrderedIDs) {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Ordering must include every level exactly once!", nil)
	}

	tx := db.Begin()
	for i, id := range reqData.OrderedIDs {
		result := tx.Model(&curriculum.Level{}).Where("id = ? AND is_deleted = ?", id, false).
			Update("order_index", i+1)
		if result.Error != nil || result.RowsAffected == 0 {
			tx.Rollback()
			return middleware.ErrorResponse(c, fiber.StatusNotFound, middleware.CodeNotFound, "Level not found!", nil)
		}
	}
	if err := tx.Commit().Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to reorder levels!", nil)
	}

	for _, id := range reqData.OrderedIDs {
		utils.RecordContentChange(db, models.EntityLevel, id, models.ActionReorder, actor.ID, actor.Role, nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Levels reordered successfully!", nil)
}
