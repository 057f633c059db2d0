package curriculumController

import (
	"ventylab/database"
	"ventylab/middleware"
	"ventylab/models"
	"ventylab/models/curriculum"
	"ventylab/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AdminCreateModule creates a new module, optionally inside a level
func AdminCreateModule(c *fiber.Ctx) error {
	actor, ok := c.Locals("authUser").(models.User)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedModule").(*struct {
		LevelID          *uint  `json:"level_id"`
		Title            string `json:"title"`
		Description      string `json:"description"`
		Difficulty       string `json:"difficulty"`
		OrderIndex       int    `json:"order_index"`
		EstimatedMinutes int    `json:"estimated_minutes"`
	})
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request data!", nil)
	}

	db := database.Database.Db

	if reqData.LevelID != nil {
		var level curriculum.Level
		if err := db.Where("id = ? AND is_deleted = ?", *reqData.LevelID, false).First(&level).Error; err != nil {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, middleware.CodeNotFound, "Level not found!", nil)
		}
	}

	levelScope := func(q *gorm.DB) *gorm.DB {
		if reqData.LevelID == nil {
			return q.Where("level_id IS NULL")
		}
		return q.Where("level_id = ?", *reqData.LevelID)
	}

	// Pick the next order index within the level if not provided
	orderIndex := reqData.OrderIndex
	if orderIndex == 0 {
		var maxOrder int
		levelScope(db.Model(&curriculum.Module{}).Where("is_deleted = ?", false)).
			Select("COALESCE(MAX(order_index), 0)").Scan(&maxOrder)
		orderIndex = maxOrder + 1
	} else {
		var count int64
		levelScope(db.Model(&curriculum.Module{}).Where("order_index = ? AND is_deleted = ?", orderIndex, false)).Count(&count)
		if count > 0 {
			return middleware.ErrorResponse(c, fiber.StatusConflict, middleware.CodeConflict, "A module with this order already exists in the level!", nil)
		}
	}

	difficulty := reqData.Difficulty
	if difficulty == "" {
		difficulty = curriculum.DifficultyBasic
	}

	module := curriculum.Module{
		LevelID:          reqData.LevelID,
		Title:            reqData.Title,
		Description:      reqData.Description,
		Difficulty:       difficulty,
		OrderIndex:       orderIndex,
		EstimatedMinutes: reqData.EstimatedMinutes,
		IsActive:         true,
	}

	if err := db.Create(&module).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to create module!", nil)
	}

	utils.RecordContentChange(db, models.EntityModule, module.ID, models.ActionCreate, actor.ID, actor.Role, nil)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Module created successfully!", module)
}

// AdminUpdateModule updates an existing module
func AdminUpdateModule(c *fiber.Ctx) error {
	actor, ok := c.Locals("authUser").(models.User)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	moduleID, ok := c.Locals("moduleID").(uint)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid module ID!", nil)
	}

	reqData, ok := c.Locals("validatedModuleUpdate").(*struct {
		Title            *string `json:"title"`
		Description      *string `json:"description"`
		Difficulty       *string `json:"difficulty"`
		OrderIndex       *int    `json:"order_index"`
		EstimatedMinutes *int    `json:"estimated_minutes"`
		IsActive         *bool   `json:"is_active"`
	})
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var module curriculum.Module
	if err := db.Where("id = ? AND is_deleted = ?", moduleID, false).First(&module).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, middleware.CodeNotFound, "Module not found!", nil)
	}

	diff := map[string]utils.FieldChange{}
	if reqData.Title != nil {
		utils.DiffStrings(diff, "title", module.Title, *reqData.Title)
		module.Title = *reqData.Title
	}
	if reqData.Description != nil {
		utils.DiffStrings(diff, "description", module.Description, *reqData.Description)
		module.Description = *reqData.Description
	}
	if reqData.Difficulty != nil {
		utils.DiffStrings(diff, "difficulty", module.Difficulty, *reqData.Difficulty)
		module.Difficulty = *reqData.Difficulty
	}
	if reqData.OrderIndex != nil && *reqData.OrderIndex != module.OrderIndex {
		q := db.Model(&curriculum.Module{}).Where("order_index = ? AND id != ? AND is_deleted = ?", *reqData.OrderIndex, moduleID, false)
		if module.LevelID == nil {
			q = q.Where("level_id IS NULL")
		} else {
			q = q.Where("level_id = ?", *module.LevelID)
		}
		var count int64
		q.Count(&count)
		if count > 0 {
			return middleware.ErrorResponse(c, fiber.StatusConflict, middleware.CodeConflict, "A module with this order already exists in the level!", nil)
		}
		utils.DiffInts(diff, "order_index", module.OrderIndex, *reqData.OrderIndex)
		module.OrderIndex = *reqData.OrderIndex
	}
	if reqData.EstimatedMinutes != nil {
		utils.DiffInts(diff, "estimated_minutes", module.EstimatedMinutes, *reqData.EstimatedMinutes)
		module.EstimatedMinutes = *reqData.EstimatedMinutes
	}
	if reqData.IsActive != nil {
		utils.DiffBools(diff, "is_active", module.IsActive, *reqData.IsActive)
		module.IsActive = *reqData.IsActive
	}

	if err := db.Save(&module).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to update module!", nil)
	}

	if len(diff) > 0 {
		utils.RecordContentChange(db, models.EntityModule, module.ID, models.ActionUpdate, actor.ID, actor.Role, diff)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module updated successfully!", module)
}

// AdminDeleteModule soft deletes a module
func AdminDeleteModule(c *fiber.Ctx) error {
	actor, ok := c.Locals("authUser").(models.User)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	moduleID, ok := c.Locals("moduleID").(uint)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid module ID!", nil)
	}

	db := database.Database.Db

	var module curriculum.Module
	if err := db.Where("id = ? AND is_deleted = ?", moduleID, false).First(&module).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, middleware.CodeNotFound, "Module not found!", nil)
	}

	module.IsDeleted = true
	if err := db.Save(&module).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to delete module!", nil)
	}

	utils.RecordContentChange(db, models.EntityModule, module.ID, models.ActionDelete, actor.ID, actor.Role, nil)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module deleted successfully!", nil)
}

// AdminListModules lists modules, optionally filtered by level
func AdminListModules(c *fiber.Ctx) error {
	if _, ok := c.Locals("authUser").(models.User); !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	db := database.Database.Db.Where("is_deleted = ?", false)
	if levelID := c.QueryInt("levelId"); levelID > 0 {
		db = db.Where("level_id = ?", levelID)
	}

	var modules []curriculum.Module
	if err := db.Order("level_id asc, order_index asc").Find(&modules).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to fetch modules!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Modules fetched successfully!", modules)
}

// AdminReorderModules re-sequences every module of a level to match the given order
func AdminReorderModules(c *fiber.Ctx) error {
	actor, ok := c.Locals("authUser").(models.User)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	levelID, ok := c.Locals("levelID").(uint)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid level ID!", nil)
	}

	reqData, ok := c.Locals("validatedReorder").(*struct {
		OrderedIDs []uint `json:"ordered_ids"`
	})
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var modules []curriculum.Module
	if err := db.Where("level_id = ? AND is_deleted = ?", levelID, false).Find(&modules).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to fetch modules!", nil)
	}

	if len(modules) != len(reqData.OrderedIDs) {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Ordered IDs must cover every module of the level!", nil)
	}

	known := make(map[uint]bool, len(modules))
	for _, m := range modules {
		known[m.ID] = true
	}
	for _, id := range reqData.OrderedIDs {
		if !known[id] {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Ordered IDs contain modules outside this level!", nil)
		}
		delete(known, id)
	}

	tx := db.Begin()
	for i, id := range reqData.OrderedIDs {
		if err := tx.Model(&curriculum.Module{}).Where("id = ?", id).
			Update("order_index", i+1).Error; err != nil {
			tx.Rollback()
			return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to reorder modules!", nil)
		}
	}
	if err := tx.Commit().Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to reorder modules!", nil)
	}

	utils.RecordContentChange(db, models.EntityLevel, levelID, models.ActionReorder, actor.ID, actor.Role, nil)

	var reordered []curriculum.Module
	db.Where("level_id = ? AND is_deleted = ?", levelID, false).Order("order_index asc").Find(&reordered)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Modules reordered successfully!", reordered)
}
