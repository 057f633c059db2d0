package curriculumController

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"ventylab/controllers/override"
	"ventylab/database"
	"ventylab/models"
	"ventylab/models/curriculum"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupCurriculumDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.RunMigrations(db))
	database.Database = database.DbInstance{Db: db}
	return db
}

func seedLessonWithSteps(t *testing.T, db *gorm.DB) (curriculum.Module, curriculum.Lesson, []curriculum.Step) {
	module := curriculum.Module{Title: "Ventilation basics", OrderIndex: 1, IsActive: true}
	require.NoError(t, db.Create(&module).Error)

	lesson := curriculum.Lesson{
		ModuleID:    module.ID,
		Title:       "PEEP fundamentals",
		Slug:        "peep-fundamentals",
		OrderIndex:  1,
		IsActive:    true,
		IsPublished: true,
	}
	require.NoError(t, db.Create(&lesson).Error)

	steps := []curriculum.Step{
		{LessonID: lesson.ID, OrderIndex: 1, StepType: curriculum.StepTypeText, Content: datatypes.JSON(`{"body":"PEEP keeps alveoli open"}`)},
		{LessonID: lesson.ID, OrderIndex: 2, StepType: curriculum.StepTypeQuiz, Content: datatypes.JSON(`{"question":"What does PEEP stand for?","options":["A","B"],"correctAnswer":"A","explanation":"Positive end-expiratory pressure"}`)},
	}
	for i := range steps {
		require.NoError(t, db.Create(&steps[i]).Error)
	}
	return module, lesson, steps
}

func lessonApp(userID uint, role string, actor *models.User, lessonID uint, handler fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/lesson", func(c *fiber.Ctx) error {
		c.Locals("userId", userID)
		c.Locals("userRole", role)
		if actor != nil {
			c.Locals("authUser", *actor)
		}
		c.Locals("lessonID", lessonID)
		return c.Next()
	}, handler)
	return app
}

func TestPublishLessonWritesIncrementingRevisions(t *testing.T) {
	db := setupCurriculumDB(t)
	_, lesson, _ := seedLessonWithSteps(t, db)
	require.NoError(t, db.Model(&lesson).Update("is_published", false).Error)

	teacher := models.User{Model: gorm.Model{ID: 5}, Role: models.RoleTeacher}
	app := lessonApp(teacher.ID, teacher.Role, &teacher, lesson.ID, AdminPublishLesson)

	resp, err := app.Test(httptest.NewRequest("GET", "/lesson", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var published curriculum.Lesson
	require.NoError(t, db.First(&published, lesson.ID).Error)
	assert.True(t, published.IsPublished)

	var revisions []curriculum.PageRevision
	require.NoError(t, db.Where("lesson_id = ?", lesson.ID).Order("revision asc").Find(&revisions).Error)
	require.Len(t, revisions, 1)
	assert.Equal(t, 1, revisions[0].Revision)
	assert.Equal(t, teacher.ID, revisions[0].AuthorID)
	assert.NotEmpty(t, revisions[0].RevisionID)

	// publishing again snapshots the next revision
	resp, err = app.Test(httptest.NewRequest("GET", "/lesson", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NoError(t, db.Where("lesson_id = ?", lesson.ID).Order("revision asc").Find(&revisions).Error)
	require.Len(t, revisions, 2)
	assert.Equal(t, 2, revisions[1].Revision)
	assert.NotEqual(t, revisions[0].RevisionID, revisions[1].RevisionID)

	var snapshot struct {
		Steps []curriculum.Step `json:"steps"`
	}
	require.NoError(t, json.Unmarshal(revisions[1].Snapshot, &snapshot))
	assert.Len(t, snapshot.Steps, 2, "snapshot carries the ordered steps")

	var audits int64
	db.Model(&models.ChangeLog{}).
		Where("entity_type = ? AND entity_id = ? AND action = ?", models.EntityLesson, lesson.ID, models.ActionPublish).
		Count(&audits)
	assert.Equal(t, int64(2), audits)
}

func TestGetLessonDetailStripsQuizAnswersForStudents(t *testing.T) {
	db := setupCurriculumDB(t)
	_, lesson, _ := seedLessonWithSteps(t, db)

	app := lessonApp(7, models.RoleStudent, nil, lesson.ID, GetLessonDetail)
	resp, err := app.Test(httptest.NewRequest("GET", "/lesson", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			Steps []overrideController.ResolvedStep `json:"steps"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data.Steps, 2)

	var quiz map[string]interface{}
	require.NoError(t, json.Unmarshal(body.Data.Steps[1].Content, &quiz))
	assert.Equal(t, "What does PEEP stand for?", quiz["question"])
	assert.NotContains(t, quiz, "correctAnswer")
	assert.NotContains(t, quiz, "explanation")
}

func TestGetLessonDetailKeepsQuizAnswersForTeachers(t *testing.T) {
	db := setupCurriculumDB(t)
	_, lesson, _ := seedLessonWithSteps(t, db)

	app := lessonApp(3, models.RoleTeacher, nil, lesson.ID, GetLessonDetail)
	resp, err := app.Test(httptest.NewRequest("GET", "/lesson", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			Steps []overrideController.ResolvedStep `json:"steps"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	var quiz map[string]interface{}
	require.NoError(t, json.Unmarshal(body.Data.Steps[1].Content, &quiz))
	assert.Contains(t, quiz, "correctAnswer")
}

func TestGetLessonDetailAppliesStudentOverride(t *testing.T) {
	db := setupCurriculumDB(t)
	_, lesson, steps := seedLessonWithSteps(t, db)

	payload, err := json.Marshal(overrideController.OverridePayload{
		HiddenCardIds: []uint{steps[1].ID},
	})
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.ContentOverride{
		StudentID:  7,
		EntityType: models.EntityLesson,
		EntityID:   lesson.ID,
		CreatedBy:  3,
		Payload:    datatypes.JSON(payload),
		IsActive:   true,
	}).Error)

	app := lessonApp(7, models.RoleStudent, nil, lesson.ID, GetLessonDetail)
	resp, err := app.Test(httptest.NewRequest("GET", "/lesson", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			Steps []overrideController.ResolvedStep `json:"steps"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data.Steps, 1, "hidden step removed for this student")
	assert.Equal(t, steps[0].ID, body.Data.Steps[0].StepID)

	// another student still sees the shared lesson
	app = lessonApp(8, models.RoleStudent, nil, lesson.ID, GetLessonDetail)
	resp, err = app.Test(httptest.NewRequest("GET", "/lesson", nil), -1)
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Data.Steps, 2)
}

func TestGetLessonDetailUnpublishedNotFound(t *testing.T) {
	db := setupCurriculumDB(t)
	_, lesson, _ := seedLessonWithSteps(t, db)
	require.NoError(t, db.Model(&lesson).Update("is_published", false).Error)

	app := lessonApp(7, models.RoleStudent, nil, lesson.ID, GetLessonDetail)
	resp, err := app.Test(httptest.NewRequest("GET", "/lesson", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
