package progressController

import (
	"testing"
	"time"
	"ventylab/database"
	"ventylab/models/curriculum"
	progressModel "ventylab/models/progress"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.RunMigrations(db))
	return db
}

func createLevel(t *testing.T, db *gorm.DB, title string, order int, optional bool) curriculum.Level {
	level := curriculum.Level{Title: title, OrderIndex: order, IsOptional: optional, IsActive: true}
	require.NoError(t, db.Create(&level).Error)
	return level
}

func createModule(t *testing.T, db *gorm.DB, levelID *uint, title string, order int) curriculum.Module {
	module := curriculum.Module{LevelID: levelID, Title: title, OrderIndex: order, Difficulty: curriculum.DifficultyBasic, IsActive: true}
	require.NoError(t, db.Create(&module).Error)
	return module
}

func createLesson(t *testing.T, db *gorm.DB, moduleID uint, slug string, order int) curriculum.Lesson {
	lesson := curriculum.Lesson{
		ModuleID:    moduleID,
		Title:       slug,
		Slug:        slug,
		OrderIndex:  order,
		IsActive:    true,
		IsPublished: true,
	}
	require.NoError(t, db.Create(&lesson).Error)
	return lesson
}

func TestPercentFloor(t *testing.T) {
	assert.Equal(t, 0, percentFloor(0, 0))
	assert.Equal(t, 0, percentFloor(0, 3))
	assert.Equal(t, 33, percentFloor(1, 3))
	assert.Equal(t, 66, percentFloor(2, 3))
	assert.Equal(t, 100, percentFloor(3, 3))
	assert.Equal(t, 50, percentFloor(1, 2))
}

func TestBuildOverviewFloorsPercentages(t *testing.T) {
	db := openTestDB(t)
	level := createLevel(t, db, "Fundamentals", 1, false)
	module := createModule(t, db, &level.ID, "Physiology", 1)
	l1 := createLesson(t, db, module.ID, "gas-exchange", 1)
	createLesson(t, db, module.ID, "compliance", 2)
	createLesson(t, db, module.ID, "resistance", 3)

	_, err := CompleteLesson(db, 1, l1.ID)
	require.NoError(t, err)

	overview, err := BuildOverview(db, 1, nil, nil)
	require.NoError(t, err)
	require.Len(t, overview.Levels, 1)
	require.Len(t, overview.Levels[0].Modules, 1)

	mod := overview.Levels[0].Modules[0]
	assert.Equal(t, 3, mod.TotalLessons)
	assert.Equal(t, 1, mod.CompletedLessons)
	assert.Equal(t, 33, mod.PercentComplete)
	assert.Equal(t, 33, overview.PercentComplete)
}

func TestBuildOverviewSequentialModuleGating(t *testing.T) {
	db := openTestDB(t)
	level := createLevel(t, db, "Fundamentals", 1, false)
	m1 := createModule(t, db, &level.ID, "Basics", 1)
	m2 := createModule(t, db, &level.ID, "Modes", 2)
	a := createLesson(t, db, m1.ID, "a", 1)
	b := createLesson(t, db, m1.ID, "b", 2)
	createLesson(t, db, m2.ID, "c", 1)

	overview, err := BuildOverview(db, 1, nil, nil)
	require.NoError(t, err)
	mods := overview.Levels[0].Modules
	assert.True(t, mods[0].IsAvailable, "first module is always available")
	assert.False(t, mods[1].IsAvailable, "second module gated on the first")

	// a partially complete predecessor still gates
	_, err = CompleteLesson(db, 1, a.ID)
	require.NoError(t, err)
	overview, err = BuildOverview(db, 1, nil, nil)
	require.NoError(t, err)
	assert.False(t, overview.Levels[0].Modules[1].IsAvailable)

	_, err = CompleteLesson(db, 1, b.ID)
	require.NoError(t, err)
	overview, err = BuildOverview(db, 1, nil, nil)
	require.NoError(t, err)
	assert.True(t, overview.Levels[0].Modules[1].IsAvailable)
}

func TestBuildOverviewEmptyPredecessorModuleDoesNotGate(t *testing.T) {
	db := openTestDB(t)
	level := createLevel(t, db, "Fundamentals", 1, false)
	createModule(t, db, &level.ID, "Draft", 1)
	m2 := createModule(t, db, &level.ID, "Modes", 2)
	createLesson(t, db, m2.ID, "modes-intro", 1)

	overview, err := BuildOverview(db, 1, nil, nil)
	require.NoError(t, err)
	mods := overview.Levels[0].Modules
	require.Len(t, mods, 2)
	assert.Equal(t, 0, mods[0].TotalLessons)
	assert.True(t, mods[1].IsAvailable, "a predecessor without published lessons never gates")
}

func TestBuildOverviewEmptyPrerequisiteLevelDoesNotGate(t *testing.T) {
	db := openTestDB(t)
	draft := createLevel(t, db, "Draft", 1, false)
	createModule(t, db, &draft.ID, "Placeholder", 1)
	target := createLevel(t, db, "Core", 2, false)
	require.NoError(t, db.Create(&curriculum.LevelPrerequisite{LevelID: target.ID, RequiredLevelID: draft.ID}).Error)

	m := createModule(t, db, &target.ID, "Core", 1)
	createLesson(t, db, m.ID, "core", 1)

	overview, err := BuildOverview(db, 1, nil, nil)
	require.NoError(t, err)
	require.Len(t, overview.Levels, 2)
	assert.True(t, overview.Levels[1].IsAvailable, "a prerequisite level without lessons counts as complete")
}

func TestBuildOverviewLevelPrerequisiteGating(t *testing.T) {
	db := openTestDB(t)
	basics := createLevel(t, db, "Basics", 1, false)
	advanced := createLevel(t, db, "Advanced", 2, false)
	require.NoError(t, db.Create(&curriculum.LevelPrerequisite{LevelID: advanced.ID, RequiredLevelID: basics.ID}).Error)

	m1 := createModule(t, db, &basics.ID, "Intro", 1)
	lesson := createLesson(t, db, m1.ID, "intro", 1)
	m2 := createModule(t, db, &advanced.ID, "ARDS", 1)
	createLesson(t, db, m2.ID, "ards", 1)

	overview, err := BuildOverview(db, 1, nil, nil)
	require.NoError(t, err)
	require.Len(t, overview.Levels, 2)
	assert.True(t, overview.Levels[0].IsAvailable)
	assert.False(t, overview.Levels[1].IsAvailable)
	assert.False(t, overview.Levels[1].Modules[0].IsAvailable, "modules of a locked level are locked")

	_, err = CompleteLesson(db, 1, lesson.ID)
	require.NoError(t, err)
	overview, err = BuildOverview(db, 1, nil, nil)
	require.NoError(t, err)
	assert.True(t, overview.Levels[1].IsAvailable)
	assert.True(t, overview.Levels[1].Modules[0].IsAvailable)
}

func TestBuildOverviewOptionalPrerequisiteDoesNotGate(t *testing.T) {
	db := openTestDB(t)
	optional := createLevel(t, db, "Enrichment", 1, true)
	target := createLevel(t, db, "Core", 2, false)
	require.NoError(t, db.Create(&curriculum.LevelPrerequisite{LevelID: target.ID, RequiredLevelID: optional.ID}).Error)

	m1 := createModule(t, db, &optional.ID, "Extras", 1)
	createLesson(t, db, m1.ID, "extra", 1)
	m2 := createModule(t, db, &target.ID, "Core", 1)
	createLesson(t, db, m2.ID, "core", 1)

	overview, err := BuildOverview(db, 1, nil, nil)
	require.NoError(t, err)
	require.Len(t, overview.Levels, 2)
	assert.True(t, overview.Levels[1].IsAvailable, "optional prerequisites never gate")
}

func TestBuildOverviewSkipsOrphanedCompletions(t *testing.T) {
	db := openTestDB(t)
	level := createLevel(t, db, "Fundamentals", 1, false)
	module := createModule(t, db, &level.ID, "Physiology", 1)
	lesson := createLesson(t, db, module.ID, "gas-exchange", 1)

	_, err := CompleteLesson(db, 1, lesson.ID)
	require.NoError(t, err)

	// completion pointing at a lesson that no longer exists
	orphan := progressModel.UserProgress{UserID: 1, LessonID: 9999, IsCompleted: true, PercentComplete: 100}
	require.NoError(t, db.Create(&orphan).Error)

	overview, err := BuildOverview(db, 1, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, overview.CompletedLessons)
	assert.Equal(t, 100, overview.PercentComplete)
}

func TestUpsertStepProgressAccumulatesTime(t *testing.T) {
	db := openTestDB(t)
	level := createLevel(t, db, "Fundamentals", 1, false)
	module := createModule(t, db, &level.ID, "Physiology", 1)
	lesson := createLesson(t, db, module.ID, "gas-exchange", 1)

	first, err := UpsertStepProgress(db, 1, StepProgressUpdate{LessonID: lesson.ID, StepIndex: 2, PercentComplete: 40, TimeSpentDelta: 30})
	require.NoError(t, err)
	assert.Equal(t, 40, first.PercentComplete)
	assert.Equal(t, int64(30), first.TimeSpentSeconds)

	second, err := UpsertStepProgress(db, 1, StepProgressUpdate{LessonID: lesson.ID, StepIndex: 5, PercentComplete: 80, TimeSpentDelta: 45})
	require.NoError(t, err)
	assert.Equal(t, 80, second.PercentComplete)
	assert.Equal(t, 5, second.LastStepIndex)
	assert.Equal(t, int64(75), second.TimeSpentSeconds, "time spent accumulates across updates")

	var count int64
	db.Model(&progressModel.UserProgress{}).Where("user_id = ? AND lesson_id = ?", 1, lesson.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUpsertStepProgressNeverCompletes(t *testing.T) {
	db := openTestDB(t)
	level := createLevel(t, db, "Fundamentals", 1, false)
	module := createModule(t, db, &level.ID, "Physiology", 1)
	lesson := createLesson(t, db, module.ID, "gas-exchange", 1)

	stored, err := UpsertStepProgress(db, 1, StepProgressUpdate{LessonID: lesson.ID, PercentComplete: 100})
	require.NoError(t, err)
	assert.Equal(t, 100, stored.PercentComplete)
	assert.False(t, stored.IsCompleted, "only the explicit completion signal completes a lesson")
	assert.Nil(t, stored.CompletedAt)
}

func TestUpsertStepProgressClampsPercent(t *testing.T) {
	db := openTestDB(t)
	level := createLevel(t, db, "Fundamentals", 1, false)
	module := createModule(t, db, &level.ID, "Physiology", 1)
	lesson := createLesson(t, db, module.ID, "gas-exchange", 1)

	stored, err := UpsertStepProgress(db, 1, StepProgressUpdate{LessonID: lesson.ID, PercentComplete: 150})
	require.NoError(t, err)
	assert.Equal(t, 100, stored.PercentComplete)

	stored, err = UpsertStepProgress(db, 1, StepProgressUpdate{LessonID: lesson.ID, PercentComplete: -5})
	require.NoError(t, err)
	assert.Equal(t, 0, stored.PercentComplete)
}

func TestUpsertStepProgressUnknownLesson(t *testing.T) {
	db := openTestDB(t)

	_, err := UpsertStepProgress(db, 1, StepProgressUpdate{LessonID: 42, PercentComplete: 10})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCompleteLessonIdempotent(t *testing.T) {
	db := openTestDB(t)
	level := createLevel(t, db, "Fundamentals", 1, false)
	module := createModule(t, db, &level.ID, "Physiology", 1)
	lesson := createLesson(t, db, module.ID, "gas-exchange", 1)

	first, err := CompleteLesson(db, 1, lesson.ID)
	require.NoError(t, err)
	require.NotNil(t, first.CompletedAt)
	firstCompletedAt := *first.CompletedAt

	time.Sleep(10 * time.Millisecond)
	second, err := CompleteLesson(db, 1, lesson.ID)
	require.NoError(t, err)
	require.NotNil(t, second.CompletedAt)
	assert.True(t, second.IsCompleted)
	assert.Equal(t, firstCompletedAt.Unix(), second.CompletedAt.Unix(), "first completion timestamp is kept")

	var aggregate progressModel.ModuleAggregate
	require.NoError(t, db.Where("user_id = ? AND module_id = ?", 1, module.ID).First(&aggregate).Error)
	assert.Equal(t, 1, aggregate.CompletedLessons)
	assert.Equal(t, 1, aggregate.TotalLessons)
	assert.Equal(t, 100, aggregate.PercentComplete)
}

func TestCompleteLessonRefreshesAggregate(t *testing.T) {
	db := openTestDB(t)
	level := createLevel(t, db, "Fundamentals", 1, false)
	module := createModule(t, db, &level.ID, "Physiology", 1)
	l1 := createLesson(t, db, module.ID, "a", 1)
	createLesson(t, db, module.ID, "b", 2)

	_, err := CompleteLesson(db, 1, l1.ID)
	require.NoError(t, err)

	var aggregate progressModel.ModuleAggregate
	require.NoError(t, db.Where("user_id = ? AND module_id = ?", 1, module.ID).First(&aggregate).Error)
	assert.Equal(t, 1, aggregate.CompletedLessons)
	assert.Equal(t, 2, aggregate.TotalLessons)
	assert.Equal(t, 50, aggregate.PercentComplete)
	require.NotNil(t, aggregate.LastLessonID)
	assert.Equal(t, l1.ID, *aggregate.LastLessonID)
}

func TestFindResumePointFirstIncomplete(t *testing.T) {
	db := openTestDB(t)
	level := createLevel(t, db, "Fundamentals", 1, false)
	module := createModule(t, db, &level.ID, "Physiology", 1)
	l1 := createLesson(t, db, module.ID, "a", 1)
	l2 := createLesson(t, db, module.ID, "b", 2)
	createLesson(t, db, module.ID, "c", 3)

	_, err := CompleteLesson(db, 1, l1.ID)
	require.NoError(t, err)

	point, err := FindResumePoint(db, 1, module.ID)
	require.NoError(t, err)
	assert.Equal(t, l2.ID, point.LessonID)
	assert.False(t, point.AllCompleted)
}

func TestFindResumePointAllCompleted(t *testing.T) {
	db := openTestDB(t)
	level := createLevel(t, db, "Fundamentals", 1, false)
	module := createModule(t, db, &level.ID, "Physiology", 1)
	l1 := createLesson(t, db, module.ID, "a", 1)
	l2 := createLesson(t, db, module.ID, "b", 2)

	_, err := CompleteLesson(db, 1, l1.ID)
	require.NoError(t, err)
	_, err = CompleteLesson(db, 1, l2.ID)
	require.NoError(t, err)

	point, err := FindResumePoint(db, 1, module.ID)
	require.NoError(t, err)
	assert.Equal(t, l2.ID, point.LessonID)
	assert.True(t, point.AllCompleted)
	require.NotNil(t, point.Progress)
	assert.True(t, point.Progress.IsCompleted)
}

func TestFindResumePointMissingModule(t *testing.T) {
	db := openTestDB(t)

	_, err := FindResumePoint(db, 1, 42)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFindResumePointEmptyModule(t *testing.T) {
	db := openTestDB(t)
	level := createLevel(t, db, "Fundamentals", 1, false)
	module := createModule(t, db, &level.ID, "Physiology", 1)

	_, err := FindResumePoint(db, 1, module.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRefreshModuleAggregateRepairsDrift(t *testing.T) {
	db := openTestDB(t)
	level := createLevel(t, db, "Fundamentals", 1, false)
	module := createModule(t, db, &level.ID, "Physiology", 1)
	lesson := createLesson(t, db, module.ID, "a", 1)

	_, err := CompleteLesson(db, 1, lesson.ID)
	require.NoError(t, err)

	// simulate drift
	require.NoError(t, db.Model(&progressModel.ModuleAggregate{}).
		Where("user_id = ? AND module_id = ?", 1, module.ID).
		Updates(map[string]interface{}{"completed_lessons": 0, "percent_complete": 0}).Error)

	require.NoError(t, RefreshModuleAggregate(db, 1, module.ID))

	var aggregate progressModel.ModuleAggregate
	require.NoError(t, db.Where("user_id = ? AND module_id = ?", 1, module.ID).First(&aggregate).Error)
	assert.Equal(t, 1, aggregate.CompletedLessons)
	assert.Equal(t, 100, aggregate.PercentComplete)
}
