package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Changelog actions
const (
	ActionCreate  = "CREATE"
	ActionUpdate  = "UPDATE"
	ActionDelete  = "DELETE"
	ActionReorder = "REORDER"
	ActionPublish = "PUBLISH"
)

// ChangeLog is an append-only audit record of a content mutation.
// Rows are never updated or deleted by the application.
type ChangeLog struct {
	gorm.Model
	EntityType string         `json:"entity_type" gorm:"type:varchar(20);index;not null"`
	EntityID   uint           `json:"entity_id" gorm:"index;not null"`
	Action     string         `json:"action" gorm:"type:varchar(20);index;not null"`
	ActorID    uint           `json:"actor_id" gorm:"index;not null"`
	ActorRole  string         `json:"actor_role" gorm:"type:varchar(20)"`
	Diff       datatypes.JSON `json:"diff"` // changed fields: {field: {old, new}}
}
