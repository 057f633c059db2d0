package progress

import (
	"time"

	"gorm.io/gorm"
)

// UserProgress is the canonical per-user, per-lesson progress record.
// A row is completed only through an explicit completion signal; the
// step-update path never flips IsCompleted, whatever the percentage.
type UserProgress struct {
	gorm.Model
	UserID           uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_user_lesson"`
	LessonID         uint       `json:"lesson_id" gorm:"not null;uniqueIndex:idx_user_lesson"`
	IsCompleted      bool       `json:"is_completed" gorm:"default:false"`
	PercentComplete  int        `json:"percent_complete" gorm:"default:0"` // clamped to [0,100]
	TimeSpentSeconds int64      `json:"time_spent_seconds" gorm:"default:0"`
	LastStepIndex    int        `json:"last_step_index" gorm:"default:0"`
	LastAccessedAt   time.Time  `json:"last_accessed_at"`
	CompletedAt      *time.Time `json:"completed_at"`
	IsDeleted        bool       `gorm:"default:false"`
}

// LegacyProgress is the retired single-table schema. It is never written
// by the application; it exists only as the source for the one-time
// reconciliation in scripts/migrateLegacyProgress.go.
type LegacyProgress struct {
	gorm.Model
	UserID       uint      `json:"user_id" gorm:"index;not null"`
	LessonID     uint      `json:"lesson_id" gorm:"index;not null"`
	Percent      int       `json:"percent" gorm:"default:0"`
	Completed    bool      `json:"completed" gorm:"default:false"`
	TimeSpent    int64     `json:"time_spent" gorm:"default:0"` // seconds
	LastAccessed time.Time `json:"last_accessed"`
}

// TableName keeps the legacy rows under their original table name.
func (LegacyProgress) TableName() string { return "progresses" }

// ModuleAggregate is a redundant per (user, module) cache of the numbers
// the overview computes from raw UserProgress rows. It is refreshed after
// each lesson completion and reconciled by the nightly scheduler job;
// readers must treat UserProgress as the source of truth.
type ModuleAggregate struct {
	gorm.Model
	UserID           uint  `json:"user_id" gorm:"not null;uniqueIndex:idx_user_module"`
	ModuleID         uint  `json:"module_id" gorm:"not null;uniqueIndex:idx_user_module"`
	CompletedLessons int   `json:"completed_lessons" gorm:"default:0"`
	TotalLessons     int   `json:"total_lessons" gorm:"default:0"`
	PercentComplete  int   `json:"percent_complete" gorm:"default:0"`
	LastLessonID     *uint `json:"last_lesson_id"`
}
