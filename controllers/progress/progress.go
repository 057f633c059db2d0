package progressController

import (
	"ventylab/database"
	"ventylab/middleware"
	"ventylab/models"
	"ventylab/models/curriculum"
	"ventylab/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// UpdateStepProgress handles POST /api/progress/step/update
func UpdateStepProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedStepUpdate").(*StepProgressUpdate)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request data!", nil)
	}

	stored, err := UpsertStepProgress(database.Database.Db, userID, *reqData)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, middleware.CodeNotFound, "Lesson not found!", nil)
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to update progress!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress updated successfully!", stored)
}

// CompleteLessonHandler handles POST /api/progress/lesson/complete
func CompleteLessonHandler(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedLessonComplete").(*struct {
		LessonID uint `json:"lesson_id"`
	})
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request data!", nil)
	}

	stored, err := CompleteLesson(database.Database.Db, userID, reqData.LessonID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, middleware.CodeNotFound, "Lesson not found!", nil)
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to complete lesson!", nil)
	}

	go notifyLevelCompletion(database.Database.Db, userID, reqData.LessonID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson completed!", stored)
}

// notifyLevelCompletion emails the student when the completed lesson was the
// last remaining published lesson of its level. Runs off the request path and
// never surfaces errors to the caller.
func notifyLevelCompletion(db *gorm.DB, userID, lessonID uint) {
	var lesson curriculum.Lesson
	if err := db.Where("id = ? AND is_deleted = ?", lessonID, false).First(&lesson).Error; err != nil {
		return
	}

	var module curriculum.Module
	if err := db.Where("id = ? AND is_deleted = ?", lesson.ModuleID, false).First(&module).Error; err != nil {
		return
	}
	if module.LevelID == nil {
		return
	}

	levelLessons := func() *gorm.DB {
		return db.Table("lessons").
			Joins("JOIN modules ON modules.id = lessons.module_id AND modules.is_deleted = false AND modules.is_active = true").
			Where(`modules.level_id = ? AND lessons.is_deleted = false
				AND lessons.is_active = true AND lessons.is_published = true`, *module.LevelID)
	}

	var total, completed int64
	if err := levelLessons().Count(&total).Error; err != nil || total == 0 {
		return
	}
	err := levelLessons().
		Joins(`JOIN user_progresses ON user_progresses.lesson_id = lessons.id
			AND user_progresses.user_id = ? AND user_progresses.is_completed = true
			AND user_progresses.is_deleted = false`, userID).
		Count(&completed).Error
	if err != nil || completed < total {
		return
	}

	var level curriculum.Level
	if err := db.First(&level, *module.LevelID).Error; err != nil {
		return
	}
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return
	}

	utils.SendLevelCompletedEmail(user.Email, user.Name, level.Title)
}

// GetOverview handles GET /api/progress/overview
func GetOverview(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	var levelFilter, moduleFilter *uint
	if id := c.QueryInt("levelId"); id > 0 {
		v := uint(id)
		levelFilter = &v
	}
	if id := c.QueryInt("moduleId"); id > 0 {
		v := uint(id)
		moduleFilter = &v
	}

	overview, err := BuildOverview(database.Database.Db, userID, levelFilter, moduleFilter)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to compute progress overview!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress overview fetched successfully!", overview)
}

// GetResume handles GET /api/progress/resume/:moduleId and
// GET /api/modules/:id/resume
func GetResume(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	moduleID, ok := c.Locals("moduleID").(uint)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid module ID!", nil)
	}

	point, err := FindResumePoint(database.Database.Db, userID, moduleID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, middleware.CodeNotFound, "Module not found or has no published lessons!", nil)
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to derive resume point!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Resume point fetched successfully!", point)
}
