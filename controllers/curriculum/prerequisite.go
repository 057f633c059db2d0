package curriculumController

import (
	"ventylab/database"
	"ventylab/middleware"
	"ventylab/models"
	"ventylab/models/curriculum"
	"ventylab/utils"

	"github.com/gofiber/fiber/v2"
)

// edge is a directed prerequisite edge: from requires to
type edge struct {
	from uint
	to   uint
}

// wouldCreateCycle reports whether adding (from -> to) to the existing
// edge set closes a cycle. A self edge is always a cycle.
func wouldCreateCycle(edges []edge, from, to uint) bool {
	if from == to {
		return true
	}

	adjacent := make(map[uint][]uint, len(edges))
	for _, e := range edges {
		adjacent[e.from] = append(adjacent[e.from], e.to)
	}
	adjacent[from] = append(adjacent[from], to)

	// DFS from `to`: if we can get back to `from`, the new edge closes a loop
	visited := make(map[uint]bool)
	stack := []uint{to}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == from {
			return true
		}
		if visited[node] {
			continue
		}
		visited[node] = true
		stack = append(stack, adjacent[node]...)
	}
	return false
}

// AdminAddModulePrerequisite adds a module->module prerequisite edge
func AdminAddModulePrerequisite(c *fiber.Ctx) error {
	actor, ok := c.Locals("authUser").(models.User)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedPrerequisite").(*struct {
		EntityID   uint `json:"entity_id"`
		RequiredID uint `json:"required_id"`
	})
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request data!", nil)
	}

	db := database.Database.Db

	for _, id := range []uint{reqData.EntityID, reqData.RequiredID} {
		var module curriculum.Module
		if err := db.Where("id = ? AND is_deleted = ?", id, false).First(&module).Error; err != nil {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, middleware.CodeNotFound, "Module not found!", nil)
		}
	}

	var existing []curriculum.ModulePrerequisite
	if err := db.Where("is_deleted = ?", false).Find(&existing).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to load prerequisites!", nil)
	}

	edges := make([]edge, len(existing))
	for i, e := range existing {
		edges[i] = edge{from: e.ModuleID, to: e.RequiredModuleID}
		if e.ModuleID == reqData.EntityID && e.RequiredModuleID == reqData.RequiredID {
			return middleware.ErrorResponse(c, fiber.StatusConflict, middleware.CodeConflict, "Prerequisite already exists!", nil)
		}
	}

	if wouldCreateCycle(edges, reqData.EntityID, reqData.RequiredID) {
		return middleware.ErrorResponse(c, fiber.StatusConflict, middleware.CodeConflict, "Prerequisite would create a circular dependency!", nil)
	}

	prereq := curriculum.ModulePrerequisite{
		ModuleID:         reqData.EntityID,
		RequiredModuleID: reqData.RequiredID,
	}
	if err := db.Create(&prereq).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to add prerequisite!", nil)
	}

	utils.RecordContentChange(db, models.EntityModule, reqData.EntityID, models.ActionUpdate, actor.ID, actor.Role,
		map[string]utils.FieldChange{"prerequisite_added": {Old: nil, New: reqData.RequiredID}})

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Prerequisite added successfully!", prereq)
}

// AdminRemoveModulePrerequisite removes a module prerequisite edge
func AdminRemoveModulePrerequisite(c *fiber.Ctx) error {
	actor, ok := c.Locals("authUser").(models.User)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedPrerequisite").(*struct {
		EntityID   uint `json:"entity_id"`
		RequiredID uint `json:"required_id"`
	})
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var prereq curriculum.ModulePrerequisite
	if err := db.Where("module_id = ? AND required_module_id = ? AND is_deleted = ?",
		reqData.EntityID, reqData.RequiredID, false).First(&prereq).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, middleware.CodeNotFound, "Prerequisite not found!", nil)
	}

	prereq.IsDeleted = true
	if err := db.Save(&prereq).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to remove prerequisite!", nil)
	}

	utils.RecordContentChange(db, models.EntityModule, reqData.EntityID, models.ActionUpdate, actor.ID, actor.Role,
		map[string]utils.FieldChange{"prerequisite_removed": {Old: reqData.RequiredID, New: nil}})

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Prerequisite removed successfully!", nil)
}

// AdminAddLevelPrerequisite adds a level->level prerequisite edge
func AdminAddLevelPrerequisite(c *fiber.Ctx) error {
	actor, ok := c.Locals("authUser").(models.User)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedPrerequisite").(*struct {
		EntityID   uint `json:"entity_id"`
		RequiredID uint `json:"required_id"`
	})
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request data!", nil)
	}

	db := database.Database.Db

	for _, id := range []uint{reqData.EntityID, reqData.RequiredID} {
		var level curriculum.Level
		if err := db.Where("id = ? AND is_deleted = ?", id, false).First(&level).Error; err != nil {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, middleware.CodeNotFound, "Level not found!", nil)
		}
	}

	var existing []curriculum.LevelPrerequisite
	if err := db.Where("is_deleted = ?", false).Find(&existing).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to load prerequisites!", nil)
	}

	edges := make([]edge, len(existing))
	for i, e := range existing {
		edges[i] = edge{from: e.LevelID, to: e.RequiredLevelID}
		if e.LevelID == reqData.EntityID && e.RequiredLevelID == reqData.RequiredID {
			return middleware.ErrorResponse(c, fiber.StatusConflict, middleware.CodeConflict, "Prerequisite already exists!", nil)
		}
	}

	if wouldCreateCycle(edges, reqData.EntityID, reqData.RequiredID) {
		return middleware.ErrorResponse(c, fiber.StatusConflict, middleware.CodeConflict, "Prerequisite would create a circular dependency!", nil)
	}

	prereq := curriculum.LevelPrerequisite{
		LevelID:         reqData.EntityID,
		RequiredLevelID: reqData.RequiredID,
	}
	if err := db.Create(&prereq).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to add prerequisite!", nil)
	}

	utils.RecordContentChange(db, models.EntityLevel, reqData.EntityID, models.ActionUpdate, actor.ID, actor.Role,
		map[string]utils.FieldChange{"prerequisite_added": {Old: nil, New: reqData.RequiredID}})

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Prerequisite added successfully!", prereq)
}

// AdminRemoveLevelPrerequisite removes a level prerequisite edge
func AdminRemoveLevelPrerequisite(c *fiber.Ctx) error {
	actor, ok := c.Locals("authUser").(models.User)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedPrerequisite").(*struct {
		EntityID   uint `json:"entity_id"`
		RequiredID uint `json:"required_id"`
	})
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var prereq curriculum.LevelPrerequisite
	if err := db.Where("level_id = ? AND required_level_id = ? AND is_deleted = ?",
		reqData.EntityID, reqData.RequiredID, false).First(&prereq).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, middleware.CodeNotFound, "Prerequisite not found!", nil)
	}

	prereq.IsDeleted = true
	if err := db.Save(&prereq).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to remove prerequisite!", nil)
	}

	utils.RecordContentChange(db, models.EntityLevel, reqData.EntityID, models.ActionUpdate, actor.ID, actor.Role,
		map[string]utils.FieldChange{"prerequisite_removed": {Old: reqData.RequiredID, New: nil}})

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Prerequisite removed successfully!", nil)
}
