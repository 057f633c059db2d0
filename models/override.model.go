package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entity types an override or changelog entry can target
const (
	EntityLevel  = "LEVEL"
	EntityModule = "MODULE"
	EntityLesson = "LESSON"
	EntityStep   = "STEP"
)

// ContentOverride layers per-student customizations on top of shared
// lesson content. Deactivating an override (soft delete) never touches
// the shared entity it targeted.
type ContentOverride struct {
	gorm.Model
	StudentID  uint           `json:"student_id" gorm:"not null;uniqueIndex:idx_override_target"`
	EntityType string         `json:"entity_type" gorm:"type:varchar(20);not null;uniqueIndex:idx_override_target"`
	EntityID   uint           `json:"entity_id" gorm:"not null;uniqueIndex:idx_override_target"`
	CreatedBy  uint           `json:"created_by" gorm:"index"` // teacher who authored the override
	Payload    datatypes.JSON `json:"payload"`                 // {fieldOverrides, hiddenCardIds, extraCards}
	IsActive   bool           `json:"is_active" gorm:"default:true"`
	IsDeleted  bool           `gorm:"default:false"`
}
