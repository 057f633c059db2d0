package main

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

func openMigrationDB(t *testing.T) *gorm.DB {
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

func seedLesson(t *testing.T, db *gorm.DB, slug string) curriculum.Lesson {
	level := curriculum.Level{Title: "Fundamentals", OrderIndex: 1, IsActive: true}
	require.NoError(t, db.Create(&level).Error)
	module := curriculum.Module{LevelID: &level.ID, Title: "Physiology", OrderIndex: 1, Difficulty: curriculum.DifficultyBasic, IsActive: true}
	require.NoError(t, db.Create(&module).Error)
	lesson := curriculum.Lesson{ModuleID: module.ID, Title: slug, Slug: slug, OrderIndex: 1, IsActive: true, IsPublished: true}
	require.NoError(t, db.Create(&lesson).Error)
	return lesson
}

func seedLegacyRow(t *testing.T, db *gorm.DB, userID, lessonID uint, percent int, completed bool) {
	row := progressModel.LegacyProgress{
		UserID:       userID,
		LessonID:     lessonID,
		Percent:      percent,
		Completed:    completed,
		TimeSpent:    120,
		LastAccessed: time.Now().Add(-time.Hour),
	}
	require.NoError(t, db.Create(&row).Error)
}

func TestMigrateLegacyProgressSecondRunWritesNothing(t *testing.T) {
	db := openMigrationDB(t)
	lesson := seedLesson(t, db, "gas-exchange")
	seedLegacyRow(t, db, 1, lesson.ID, 100, true)

	first, err := migrateLegacyProgress(db, false)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Migrated)
	assert.Equal(t, 0, first.Skipped)
	assert.Empty(t, first.Failures)

	var stored progressModel.UserProgress
	require.NoError(t, db.Where("user_id = ? AND lesson_id = ?", 1, lesson.ID).First(&stored).Error)
	require.NotNil(t, stored.CompletedAt)
	firstCompletedAt := *stored.CompletedAt

	second, err := migrateLegacyProgress(db, false)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Migrated)
	assert.Equal(t, 1, second.Skipped, "already migrated rows are skipped")

	var count int64
	db.Model(&progressModel.UserProgress{}).Where("user_id = ? AND lesson_id = ?", 1, lesson.ID).Count(&count)
	assert.Equal(t, int64(1), count, "no duplicate rows after a re-run")

	require.NoError(t, db.Where("user_id = ? AND lesson_id = ?", 1, lesson.ID).First(&stored).Error)
	require.NotNil(t, stored.CompletedAt)
	assert.Equal(t, firstCompletedAt.Unix(), stored.CompletedAt.Unix(), "stored row is untouched by the re-run")
}

func TestMigrateLegacyProgressDryRunWritesNothing(t *testing.T) {
	db := openMigrationDB(t)
	lesson := seedLesson(t, db, "compliance")
	seedLegacyRow(t, db, 2, lesson.ID, 60, false)

	summary, err := migrateLegacyProgress(db, true)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Migrated, "dry run reports what would migrate")

	var progressCount, aggregateCount int64
	db.Model(&progressModel.UserProgress{}).Count(&progressCount)
	db.Model(&progressModel.ModuleAggregate{}).Count(&aggregateCount)
	assert.Zero(t, progressCount, "dry run writes no progress rows")
	assert.Zero(t, aggregateCount, "dry run refreshes no aggregates")
}

func TestMigrateLegacyProgressClampsAndSkipsUnknownLessons(t *testing.T) {
	db := openMigrationDB(t)
	lesson := seedLesson(t, db, "resistance")
	seedLegacyRow(t, db, 3, lesson.ID, 150, false)
	seedLegacyRow(t, db, 3, 9999, 50, false)

	summary, err := migrateLegacyProgress(db, false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Migrated)
	require.Len(t, summary.Failures, 1, "the orphaned legacy row is reported, not written")

	var stored progressModel.UserProgress
	require.NoError(t, db.Where("user_id = ? AND lesson_id = ?", 3, lesson.ID).First(&stored).Error)
	assert.Equal(t, 100, stored.PercentComplete, "out-of-range percentages are clamped")

	var aggregate progressModel.ModuleAggregate
	require.NoError(t, db.Where("user_id = ?", 3).First(&aggregate).Error)
	assert.Equal(t, 1, aggregate.TotalLessons)
}
