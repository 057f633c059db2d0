package curriculum

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Step content block types
const (
	StepTypeText     = "TEXT"
	StepTypeImage    = "IMAGE"
	StepTypeQuiz     = "QUIZ"
	StepTypeExercise = "EXERCISE"
	StepTypeSummary  = "SUMMARY"
	StepTypeCase     = "CASE"
)

// IsValidStepType reports whether the given type is one of the known block types.
func IsValidStepType(stepType string) bool {
	switch stepType {
	case StepTypeText, StepTypeImage, StepTypeQuiz, StepTypeExercise, StepTypeSummary, StepTypeCase:
		return true
	}
	return false
}

// Step is an atomic content block within a lesson
type Step struct {
	gorm.Model
	LessonID   uint           `json:"lesson_id" gorm:"index;not null"`
	OrderIndex int            `json:"order_index" gorm:"index;default:0"` // unique within its lesson, enforced on write
	StepType   string         `json:"step_type" gorm:"default:'TEXT'"`    // TEXT, IMAGE, QUIZ, EXERCISE, SUMMARY, CASE
	Content    datatypes.JSON `json:"content"`                            // typed payload: text body, image url, quiz options, ...
	IsDeleted  bool           `gorm:"default:false"`
}
