package main

import (
	"flag"
	"fmt"
	"log"
	"time"
	"ventylab/config"
	"ventylab/controllers/progress"
	"ventylab/database"
	"ventylab/models/curriculum"
	progressModel "ventylab/models/progress"

	"gorm.io/gorm"
)

// migrationSummary reports what a migration run did (or, on a dry run,
// would have done).
type migrationSummary struct {
	Migrated int
	Skipped  int
	Failures []string
}

// Migrates rows from the retired single-table progress schema into
// UserProgress. Safe to re-run: rows that already have a UserProgress
// record are skipped.
func main() {
	dryRun := flag.Bool("dry-run", false, "report what would be migrated without writing")
	flag.Parse()

	config.LoadConfig()
	database.ConnectDb()

	summary, err := migrateLegacyProgress(database.Database.Db, *dryRun)
	if err != nil {
		log.Fatalf("Failed to read legacy progress rows: %v", err)
	}

	log.Printf("Migration finished: %d migrated, %d skipped, %d failures",
		summary.Migrated, summary.Skipped, len(summary.Failures))
	for _, failure := range summary.Failures {
		log.Printf("  - %s", failure)
	}
}

// migrateLegacyProgress walks every legacy row once. On a dry run no
// writes happen at all; otherwise each unmigrated row becomes a
// UserProgress record and the touched module aggregates are refreshed.
func migrateLegacyProgress(db *gorm.DB, dryRun bool) (*migrationSummary, error) {
	var legacyRows []progressModel.LegacyProgress
	if err := db.Order("id asc").Find(&legacyRows).Error; err != nil {
		return nil, err
	}
	log.Printf("Found %d legacy progress rows", len(legacyRows))

	summary := &migrationSummary{}
	touchedModules := make(map[[2]uint]bool)

	for _, legacy := range legacyRows {
		var existing int64
		db.Model(&progressModel.UserProgress{}).
			Where("user_id = ? AND lesson_id = ?", legacy.UserID, legacy.LessonID).
			Count(&existing)
		if existing > 0 {
			summary.Skipped++
			continue
		}

		var lesson curriculum.Lesson
		if err := db.Where("id = ? AND is_deleted = ?", legacy.LessonID, false).First(&lesson).Error; err != nil {
			summary.fail("legacy row %d references unknown lesson %d", legacy.ID, legacy.LessonID)
			continue
		}

		row := legacyToUserProgress(legacy)

		if dryRun {
			log.Printf("[DRY-RUN] Would migrate user %d lesson %d (completed=%v, percent=%d)",
				legacy.UserID, legacy.LessonID, legacy.Completed, row.PercentComplete)
			summary.Migrated++
			continue
		}

		if err := db.Create(&row).Error; err != nil {
			summary.fail("failed to migrate user %d lesson %d: %v", legacy.UserID, legacy.LessonID, err)
			continue
		}
		summary.Migrated++
		touchedModules[[2]uint{legacy.UserID, lesson.ModuleID}] = true
	}

	if !dryRun {
		log.Printf("Refreshing %d module aggregates...", len(touchedModules))
		for pair := range touchedModules {
			if err := progressController.RefreshModuleAggregate(db, pair[0], pair[1]); err != nil {
				summary.fail("failed to refresh aggregate for user %d module %d: %v", pair[0], pair[1], err)
			}
		}
	}

	return summary, nil
}

// legacyToUserProgress maps one legacy row to the canonical schema,
// clamping the stored percentage and backfilling the completion
// timestamp from the last access time.
func legacyToUserProgress(legacy progressModel.LegacyProgress) progressModel.UserProgress {
	percent := legacy.Percent
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	row := progressModel.UserProgress{
		UserID:           legacy.UserID,
		LessonID:         legacy.LessonID,
		IsCompleted:      legacy.Completed,
		PercentComplete:  percent,
		TimeSpentSeconds: legacy.TimeSpent,
		LastAccessedAt:   legacy.LastAccessed,
	}
	if legacy.Completed {
		completedAt := legacy.LastAccessed
		if completedAt.IsZero() {
			completedAt = time.Now()
		}
		row.CompletedAt = &completedAt
	}
	return row
}

func (s *migrationSummary) fail(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("ERROR: %s", msg)
	s.Failures = append(s.Failures, msg)
}
