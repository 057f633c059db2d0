package utils

import (
	"encoding/json"
	"log"
	"ventylab/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FieldChange holds the before/after pair for a single field diff
type FieldChange struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

// RecordContentChange appends one audit row for a content mutation.
// Failures are logged, never propagated: an audit miss must not fail the
// mutation it describes.
func RecordContentChange(db *gorm.DB, entityType string, entityID uint, action string, actorID uint, actorRole string, diff map[string]FieldChange) {
	var payload datatypes.JSON
	if len(diff) > 0 {
		raw, err := json.Marshal(diff)
		if err != nil {
			log.Printf("changelog: failed to marshal diff for %s %d: %v", entityType, entityID, err)
		} else {
			payload = datatypes.JSON(raw)
		}
	}

	entry := models.ChangeLog{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		ActorID:    actorID,
		ActorRole:  actorRole,
		Diff:       payload,
	}

	if err := db.Create(&entry).Error; err != nil {
		log.Printf("changelog: failed to record %s on %s %d: %v", action, entityType, entityID, err)
	}
}

// DiffStrings adds a field to the diff map when the value changed
func DiffStrings(diff map[string]FieldChange, field, oldVal, newVal string) {
	if oldVal != newVal {
		diff[field] = FieldChange{Old: oldVal, New: newVal}
	}
}

// DiffInts adds a field to the diff map when the value changed
func DiffInts(diff map[string]FieldChange, field string, oldVal, newVal int) {
	if oldVal != newVal {
		diff[field] = FieldChange{Old: oldVal, New: newVal}
	}
}

// DiffBools adds a field to the diff map when the value changed
func DiffBools(diff map[string]FieldChange, field string, oldVal, newVal bool) {
	if oldVal != newVal {
		diff[field] = FieldChange{Old: oldVal, New: newVal}
	}
}
