package curriculumController

import (
	"encoding/json"
	"log"
	"ventylab/database"
	"ventylab/middleware"
	"ventylab/models"
	"ventylab/models/curriculum"
	"ventylab/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AdminCreateLesson creates a new lesson in a module
func AdminCreateLesson(c *fiber.Ctx) error {
	actor, ok := c.Locals("authUser").(models.User)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedLesson").(*struct {
		ModuleID     uint   `json:"module_id"`
		Title        string `json:"title"`
		Slug         string `json:"slug"`
		Description  string `json:"description"`
		OrderIndex   int    `json:"order_index"`
		RequiresQuiz bool   `json:"requires_quiz"`
		RequiresCase bool   `json:"requires_case"`
		PassingScore int    `json:"passing_score"`
	})
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var module curriculum.Module
	if err := db.Where("id = ? AND is_deleted = ?", reqData.ModuleID, false).First(&module).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, middleware.CodeNotFound, "Module not found!", nil)
	}

	var duplicate int64
	db.Model(&curriculum.Lesson{}).Where("module_id = ? AND slug = ? AND is_deleted = ?",
		reqData.ModuleID, reqData.Slug, false).Count(&duplicate)
	if duplicate > 0 {
		return middleware.ErrorResponse(c, fiber.StatusConflict, middleware.CodeConflict, "A lesson with this slug already exists in the module!", nil)
	}

	orderIndex := reqData.OrderIndex
	if orderIndex == 0 {
		var maxOrder int
		db.Model(&curriculum.Lesson{}).Where("module_id = ? AND is_deleted = ?", reqData.ModuleID, false).
			Select("COALESCE(MAX(order_index), 0)").Scan(&maxOrder)
		orderIndex = maxOrder + 1
	} else {
		var count int64
		db.Model(&curriculum.Lesson{}).Where("module_id = ? AND order_index = ? AND is_deleted = ?",
			reqData.ModuleID, orderIndex, false).Count(&count)
		if count > 0 {
			return middleware.ErrorResponse(c, fiber.StatusConflict, middleware.CodeConflict, "A lesson with this order already exists in the module!", nil)
		}
	}

	passingScore := reqData.PassingScore
	if passingScore == 0 {
		passingScore = 70
	}

	lesson := curriculum.Lesson{
		ModuleID:     reqData.ModuleID,
		Title:        reqData.Title,
		Slug:         reqData.Slug,
		Description:  reqData.Description,
		OrderIndex:   orderIndex,
		RequiresQuiz: reqData.RequiresQuiz,
		RequiresCase: reqData.RequiresCase,
		PassingScore: passingScore,
		IsActive:     true,
	}

	if err := db.Create(&lesson).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to create lesson!", nil)
	}

	utils.RecordContentChange(db, models.EntityLesson, lesson.ID, models.ActionCreate, actor.ID, actor.Role, nil)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Lesson created successfully!", lesson)
}

// AdminUpdateLesson updates an existing lesson
func AdminUpdateLesson(c *fiber.Ctx) error {
	actor, ok := c.Locals("authUser").(models.User)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	lessonID, ok := c.Locals("lessonID").(uint)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid lesson ID!", nil)
	}

	reqData, ok := c.Locals("validatedLessonUpdate").(*struct {
		Title        *string `json:"title"`
		Slug         *string `json:"slug"`
		Description  *string `json:"description"`
		OrderIndex   *int    `json:"order_index"`
		RequiresQuiz *bool   `json:"requires_quiz"`
		RequiresCase *bool   `json:"requires_case"`
		PassingScore *int    `json:"passing_score"`
		IsActive     *bool   `json:"is_active"`
	})
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var lesson curriculum.Lesson
	if err := db.Where("id = ? AND is_deleted = ?", lessonID, false).First(&lesson).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, middleware.CodeNotFound, "Lesson not found!", nil)
	}

	diff := map[string]utils.FieldChange{}
	if reqData.Title != nil {
		utils.DiffStrings(diff, "title", lesson.Title, *reqData.Title)
		lesson.Title = *reqData.Title
	}
	if reqData.Slug != nil && *reqData.Slug != lesson.Slug {
		var duplicate int64
		db.Model(&curriculum.Lesson{}).Where("module_id = ? AND slug = ? AND id != ? AND is_deleted = ?",
			lesson.ModuleID, *reqData.Slug, lessonID, false).Count(&duplicate)
		if duplicate > 0 {
			return middleware.ErrorResponse(c, fiber.StatusConflict, middleware.CodeConflict, "A lesson with this slug already exists in the module!", nil)
		}
		utils.DiffStrings(diff, "slug", lesson.Slug, *reqData.Slug)
		lesson.Slug = *reqData.Slug
	}
	if reqData.Description != nil {
		utils.DiffStrings(diff, "description", lesson.Description, *reqData.Description)
		lesson.Description = *reqData.Description
	}
	if reqData.OrderIndex != nil && *reqData.OrderIndex != lesson.OrderIndex {
		var count int64
		db.Model(&curriculum.Lesson{}).Where("module_id = ? AND order_index = ? AND id != ? AND is_deleted = ?",
			lesson.ModuleID, *reqData.OrderIndex, lessonID, false).Count(&count)
		if count > 0 {
			return middleware.ErrorResponse(c, fiber.StatusConflict, middleware.CodeConflict, "A lesson with this order already exists in the module!", nil)
		}
		utils.DiffInts(diff, "order_index", lesson.OrderIndex, *reqData.OrderIndex)
		lesson.OrderIndex = *reqData.OrderIndex
	}
	if reqData.RequiresQuiz != nil {
		utils.DiffBools(diff, "requires_quiz", lesson.RequiresQuiz, *reqData.RequiresQuiz)
		lesson.RequiresQuiz = *reqData.RequiresQuiz
	}
	if reqData.RequiresCase != nil {
		utils.DiffBools(diff, "requires_case", lesson.RequiresCase, *reqData.RequiresCase)
		lesson.RequiresCase = *reqData.RequiresCase
	}
	if reqData.PassingScore != nil {
		utils.DiffInts(diff, "passing_score", lesson.PassingScore, *reqData.PassingScore)
		lesson.PassingScore = *reqData.PassingScore
	}
	if reqData.IsActive != nil {
		utils.DiffBools(diff, "is_active", lesson.IsActive, *reqData.IsActive)
		lesson.IsActive = *reqData.IsActive
	}

	if err := db.Save(&lesson).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to update lesson!", nil)
	}

	if len(diff) > 0 {
		utils.RecordContentChange(db, models.EntityLesson, lesson.ID, models.ActionUpdate, actor.ID, actor.Role, diff)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson updated successfully!", lesson)
}

// AdminDeleteLesson soft deletes a lesson
func AdminDeleteLesson(c *fiber.Ctx) error {
	actor, ok := c.Locals("authUser").(models.User)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	lessonID, ok := c.Locals("lessonID").(uint)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid lesson ID!", nil)
	}

	db := database.Database.Db

	var lesson curriculum.Lesson
	if err := db.Where("id = ? AND is_deleted = ?", lessonID, false).First(&lesson).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, middleware.CodeNotFound, "Lesson not found!", nil)
	}

	lesson.IsDeleted = true
	if err := db.Save(&lesson).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to delete lesson!", nil)
	}

	utils.RecordContentChange(db, models.EntityLesson, lesson.ID, models.ActionDelete, actor.ID, actor.Role, nil)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson deleted successfully!", nil)
}

// AdminPublishLesson publishes a lesson and snapshots it as a revision
func AdminPublishLesson(c *fiber.Ctx) error {
	actor, ok := c.Locals("authUser").(models.User)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	lessonID, ok := c.Locals("lessonID").(uint)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid lesson ID!", nil)
	}

	db := database.Database.Db

	var lesson curriculum.Lesson
	if err := db.Where("id = ? AND is_deleted = ?", lessonID, false).First(&lesson).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, middleware.CodeNotFound, "Lesson not found!", nil)
	}

	var steps []curriculum.Step
	db.Where("lesson_id = ? AND is_deleted = ?", lessonID, false).Order("order_index asc").Find(&steps)

	lesson.IsPublished = true
	if err := db.Save(&lesson).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to publish lesson!", nil)
	}

	// snapshot the published state as the next revision
	var lastRevision int
	db.Model(&curriculum.PageRevision{}).Where("lesson_id = ?", lessonID).
		Select("COALESCE(MAX(revision), 0)").Scan(&lastRevision)

	snapshot, err := json.Marshal(fiber.Map{
		"lesson": lesson,
		"steps":  steps,
	})
	if err != nil {
		log.Printf("curriculum: failed to marshal revision snapshot for lesson %d: %v", lessonID, err)
	} else {
		revision := curriculum.PageRevision{
			LessonID:   lessonID,
			RevisionID: uuid.NewString(),
			Revision:   lastRevision + 1,
			Snapshot:   datatypes.JSON(snapshot),
			AuthorID:   actor.ID,
		}
		if err := db.Create(&revision).Error; err != nil {
			log.Printf("curriculum: failed to store revision for lesson %d: %v", lessonID, err)
		}
	}

	utils.RecordContentChange(db, models.EntityLesson, lesson.ID, models.ActionPublish, actor.ID, actor.Role, nil)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson published successfully!", lesson)
}

// AdminUnpublishLesson hides a lesson from learners without deleting it
func AdminUnpublishLesson(c *fiber.Ctx) error {
	actor, ok := c.Locals("authUser").(models.User)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	lessonID, ok := c.Locals("lessonID").(uint)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid lesson ID!", nil)
	}

	db := database.Database.Db

	var lesson curriculum.Lesson
	if err := db.Where("id = ? AND is_deleted = ?", lessonID, false).First(&lesson).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, middleware.CodeNotFound, "Lesson not found!", nil)
	}

	lesson.IsPublished = false
	if err := db.Save(&lesson).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to unpublish lesson!", nil)
	}

	diff := map[string]utils.FieldChange{"is_published": {Old: true, New: false}}
	utils.RecordContentChange(db, models.EntityLesson, lesson.ID, models.ActionUpdate, actor.ID, actor.Role, diff)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson unpublished successfully!", lesson)
}

// AdminListLessonRevisions lists the stored revisions of a lesson
func AdminListLessonRevisions(c *fiber.Ctx) error {
	if _, ok := c.Locals("authUser").(models.User); !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	lessonID, ok := c.Locals("lessonID").(uint)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid lesson ID!", nil)
	}

	var revisions []curriculum.PageRevision
	if err := database.Database.Db.Where("lesson_id = ? AND is_deleted = ?", lessonID, false).
		Order("revision desc").Find(&revisions).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to fetch revisions!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Revisions fetched successfully!", revisions)
}
