package curriculum

import "gorm.io/gorm"

// Level is a top-level curriculum grouping (Beginner, Intermediate, ...)
type Level struct {
	gorm.Model
	Title       string `json:"title"`
	Description string `json:"description"`
	OrderIndex  int    `json:"order_index" gorm:"index;default:0"` // unique among non-deleted levels, enforced on write
	IsActive    bool   `json:"is_active" gorm:"default:true"`
	IsOptional  bool   `json:"is_optional" gorm:"default:false"` // optional levels never gate progression
	IsDeleted   bool   `gorm:"default:false"`
}

// LevelPrerequisite is a directed edge: LevelID requires RequiredLevelID.
// The edge set must stay acyclic; self references are rejected.
type LevelPrerequisite struct {
	gorm.Model
	LevelID         uint `json:"level_id" gorm:"index;not null;uniqueIndex:idx_level_prereq"`
	RequiredLevelID uint `json:"required_level_id" gorm:"not null;uniqueIndex:idx_level_prereq"`
	IsDeleted       bool `gorm:"default:false"`
}
