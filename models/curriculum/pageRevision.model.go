package curriculum

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PageRevision is an immutable snapshot of a lesson and its steps,
// written each time the lesson is published.
type PageRevision struct {
	gorm.Model
	LessonID   uint           `json:"lesson_id" gorm:"index;not null"`
	RevisionID string         `json:"revision_id" gorm:"type:varchar(36);uniqueIndex"` // uuid
	Revision   int            `json:"revision" gorm:"default:1"`                       // monotonically increasing per lesson
	Snapshot   datatypes.JSON `json:"snapshot"`                                        // lesson fields + ordered steps
	AuthorID   uint           `json:"author_id" gorm:"index"`
	IsDeleted  bool           `gorm:"default:false"`
}
