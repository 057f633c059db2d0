package curriculumController

import (
	"encoding/json"
	"errors"
	"log"
	"ventylab/controllers/override"
	"ventylab/controllers/progress"
	"ventylab/database"
	"ventylab/middleware"
	"ventylab/models"
	"ventylab/models/curriculum"
	progressModel "ventylab/models/progress"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// quiz content fields a student must not see before answering
var quizAnswerFields = []string{"correctAnswer", "explanation"}

// GetLevels returns the active levels with per-user completion and
// availability, modules included.
func GetLevels(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	overview, err := progressController.BuildOverview(database.Database.Db, userID, nil, nil)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to fetch levels!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Levels fetched successfully!", overview)
}

// lessonEntry is a lesson row of the module detail with the user's state
type lessonEntry struct {
	LessonID        uint   `json:"lesson_id"`
	Title           string `json:"title"`
	Slug            string `json:"slug"`
	OrderIndex      int    `json:"order_index"`
	RequiresQuiz    bool   `json:"requires_quiz"`
	RequiresCase    bool   `json:"requires_case"`
	IsCompleted     bool   `json:"is_completed"`
	PercentComplete int    `json:"percent_complete"`
}

// GetModuleDetail returns one module with its published lessons and the
// caller's completion state on each.
func GetModuleDetail(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	moduleID, ok := c.Locals("moduleID").(uint)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid module ID!", nil)
	}

	db := database.Database.Db

	var module curriculum.Module
	if err := db.Where("id = ? AND is_active = ? AND is_deleted = ?", moduleID, true, false).First(&module).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, middleware.CodeNotFound, "Module not found!", nil)
	}

	var lessons []curriculum.Lesson
	if err := db.Where("module_id = ? AND is_active = ? AND is_published = ? AND is_deleted = ?",
		moduleID, true, true, false).Order("order_index asc").Find(&lessons).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to fetch lessons!", nil)
	}

	var rows []progressModel.UserProgress
	db.Where("user_id = ? AND is_deleted = ?", userID, false).Find(&rows)
	byLesson := make(map[uint]progressModel.UserProgress, len(rows))
	for _, row := range rows {
		byLesson[row.LessonID] = row
	}

	entries := make([]lessonEntry, 0, len(lessons))
	for _, lesson := range lessons {
		entry := lessonEntry{
			LessonID:     lesson.ID,
			Title:        lesson.Title,
			Slug:         lesson.Slug,
			OrderIndex:   lesson.OrderIndex,
			RequiresQuiz: lesson.RequiresQuiz,
			RequiresCase: lesson.RequiresCase,
		}
		if row, found := byLesson[lesson.ID]; found {
			entry.IsCompleted = row.IsCompleted
			entry.PercentComplete = row.PercentComplete
		}
		entries = append(entries, entry)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module fetched successfully!", fiber.Map{
		"module":  module,
		"lessons": entries,
	})
}

// GetLessonDetail returns a lesson with its steps resolved through the
// caller's active override. Students never receive quiz answers.
func GetLessonDetail(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}
	role, _ := c.Locals("userRole").(string)

	lessonID, ok := c.Locals("lessonID").(uint)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid lesson ID!", nil)
	}

	db := database.Database.Db

	var lesson curriculum.Lesson
	if err := db.Where("id = ? AND is_active = ? AND is_published = ? AND is_deleted = ?",
		lessonID, true, true, false).First(&lesson).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, middleware.CodeNotFound, "Lesson not found!", nil)
	}

	var steps []curriculum.Step
	if err := db.Where("lesson_id = ? AND is_deleted = ?", lessonID, false).
		Order("order_index asc").Find(&steps).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to fetch steps!", nil)
	}

	var active *models.ContentOverride
	var override models.ContentOverride
	err := db.Where("student_id = ? AND entity_type = ? AND entity_id = ? AND is_active = ? AND is_deleted = ?",
		userID, models.EntityLesson, lessonID, true, false).First(&override).Error
	if err == nil {
		active = &override
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to fetch overrides!", nil)
	}

	resolved, err := overrideController.ResolveSteps(steps, active)
	if err != nil {
		log.Printf("curriculum: invalid override payload for student %d lesson %d: %v", userID, lessonID, err)
		// a broken override must not block the lesson itself
		if resolved, err = overrideController.ResolveSteps(steps, nil); err != nil {
			return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to resolve steps!", nil)
		}
	}

	if role == models.RoleStudent {
		for i := range resolved {
			if resolved[i].StepType == curriculum.StepTypeQuiz {
				resolved[i].Content = stripQuizAnswers(resolved[i].Content)
			}
		}
	}

	var userProgress progressModel.UserProgress
	db.Where("user_id = ? AND lesson_id = ? AND is_deleted = ?", userID, lessonID, false).First(&userProgress)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson fetched successfully!", fiber.Map{
		"lesson":   lesson,
		"steps":    resolved,
		"progress": userProgress,
	})
}

// stripQuizAnswers removes the answer key fields from quiz content
func stripQuizAnswers(content []byte) []byte {
	doc := map[string]interface{}{}
	if len(content) == 0 || json.Unmarshal(content, &doc) != nil {
		return content
	}
	for _, field := range quizAnswerFields {
		delete(doc, field)
	}
	cleaned, err := json.Marshal(doc)
	if err != nil {
		return content
	}
	return cleaned
}
