package curriculumController

import (
	"encoding/json"
	"ventylab/database"
	"ventylab/middleware"
	"ventylab/models"
	"ventylab/models/curriculum"
	"ventylab/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

// AdminCreateStep appends or inserts a step into a lesson
func AdminCreateStep(c *fiber.Ctx) error {
	actor, ok := c.Locals("authUser").(models.User)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedStep").(*struct {
		LessonID   uint            `json:"lesson_id"`
		StepType   string          `json:"step_type"`
		OrderIndex int             `json:"order_index"`
		Content    json.RawMessage `json:"content"`
	})
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var lesson curriculum.Lesson
	if err := db.Where("id = ? AND is_deleted = ?", reqData.LessonID, false).First(&lesson).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, middleware.CodeNotFound, "Lesson not found!", nil)
	}

	if !curriculum.IsValidStepType(reqData.StepType) {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid step type!", nil)
	}

	orderIndex := reqData.OrderIndex
	if orderIndex == 0 {
		var maxOrder int
		db.Model(&curriculum.Step{}).Where("lesson_id = ? AND is_deleted = ?", reqData.LessonID, false).
			Select("COALESCE(MAX(order_index), 0)").Scan(&maxOrder)
		orderIndex = maxOrder + 1
	} else {
		var count int64
		db.Model(&curriculum.Step{}).Where("lesson_id = ? AND order_index = ? AND is_deleted = ?",
			reqData.LessonID, orderIndex, false).Count(&count)
		if count > 0 {
			return middleware.ErrorResponse(c, fiber.StatusConflict, middleware.CodeConflict, "A step with this order already exists in the lesson!", nil)
		}
	}

	step := curriculum.Step{
		LessonID:   reqData.LessonID,
		StepType:   reqData.StepType,
		OrderIndex: orderIndex,
		Content:    datatypes.JSON(reqData.Content),
	}

	if err := db.Create(&step).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to create step!", nil)
	}

	utils.RecordContentChange(db, models.EntityStep, step.ID, models.ActionCreate, actor.ID, actor.Role, nil)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Step created successfully!", step)
}

// AdminUpdateStep updates a step's type or content
func AdminUpdateStep(c *fiber.Ctx) error {
	actor, ok := c.Locals("authUser").(models.User)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	stepID, ok := c.Locals("stepID").(uint)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid step ID!", nil)
	}

	reqData, ok := c.Locals("validatedStepUpdate").(*struct {
		StepType *string         `json:"step_type"`
		Content  json.RawMessage `json:"content"`
	})
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var step curriculum.Step
	if err := db.Where("id = ? AND is_deleted = ?", stepID, false).First(&step).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, middleware.CodeNotFound, "Step not found!", nil)
	}

	diff := map[string]utils.FieldChange{}
	if reqData.StepType != nil {
		if !curriculum.IsValidStepType(*reqData.StepType) {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid step type!", nil)
		}
		utils.DiffStrings(diff, "step_type", step.StepType, *reqData.StepType)
		step.StepType = *reqData.StepType
	}
	if len(reqData.Content) > 0 {
		diff["content"] = utils.FieldChange{Old: string(step.Content), New: string(reqData.Content)}
		step.Content = datatypes.JSON(reqData.Content)
	}

	if err := db.Save(&step).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to update step!", nil)
	}

	if len(diff) > 0 {
		utils.RecordContentChange(db, models.EntityStep, step.ID, models.ActionUpdate, actor.ID, actor.Role, diff)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Step updated successfully!", step)
}

// AdminDeleteStep soft deletes a step
func AdminDeleteStep(c *fiber.Ctx) error {
	actor, ok := c.Locals("authUser").(models.User)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	stepID, ok := c.Locals("stepID").(uint)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid step ID!", nil)
	}

	db := database.Database.Db

	var step curriculum.Step
	if err := db.Where("id = ? AND is_deleted = ?", stepID, false).First(&step).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, middleware.CodeNotFound, "Step not found!", nil)
	}

	step.IsDeleted = true
	if err := db.Save(&step).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to delete step!", nil)
	}

	utils.RecordContentChange(db, models.EntityStep, step.ID, models.ActionDelete, actor.ID, actor.Role, nil)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Step deleted successfully!", nil)
}

// AdminReorderSteps re-sequences every step of a lesson to match the given order
func AdminReorderSteps(c *fiber.Ctx) error {
	actor, ok := c.Locals("authUser").(models.User)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	lessonID, ok := c.Locals("lessonID").(uint)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid lesson ID!", nil)
	}

	reqData, ok := c.Locals("validatedReorder").(*struct {
		OrderedIDs []uint `json:"ordered_ids"`
	})
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var steps []curriculum.Step
	if err := db.Where("lesson_id = ? AND is_deleted = ?", lessonID, false).Find(&steps).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to fetch steps!", nil)
	}

	if len(steps) != len(reqData.OrderedIDs) {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Ordered IDs must cover every step of the lesson!", nil)
	}

	known := make(map[uint]bool, len(steps))
	for _, s := range steps {
		known[s.ID] = true
	}
	for _, id := range reqData.OrderedIDs {
		if !known[id] {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Ordered IDs contain steps outside this lesson!", nil)
		}
		delete(known, id)
	}

	tx := db.Begin()
	for i, id := range reqData.OrderedIDs {
		if err := tx.Model(&curriculum.Step{}).Where("id = ?", id).
			Update("order_index", i+1).Error; err != nil {
			tx.Rollback()
			return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to reorder steps!", nil)
		}
	}
	if err := tx.Commit().Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to reorder steps!", nil)
	}

	utils.RecordContentChange(db, models.EntityLesson, lessonID, models.ActionReorder, actor.ID, actor.Role, nil)

	var reordered []curriculum.Step
	db.Where("lesson_id = ? AND is_deleted = ?", lessonID, false).Order("order_index asc").Find(&reordered)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Steps reordered successfully!", reordered)
}

// AdminListSteps lists the steps of a lesson in order
func AdminListSteps(c *fiber.Ctx) error {
	lessonID, ok := c.Locals("lessonID").(uint)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid lesson ID!", nil)
	}

	var steps []curriculum.Step
	if err := database.Database.Db.Where("lesson_id = ? AND is_deleted = ?", lessonID, false).
		Order("order_index asc").Find(&steps).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to fetch steps!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Steps fetched successfully!", steps)
}
