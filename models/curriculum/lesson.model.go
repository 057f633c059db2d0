package curriculum

import "gorm.io/gorm"

// Lesson is a single learning unit with ordered content steps
type Lesson struct {
	gorm.Model
	ModuleID     uint   `json:"module_id" gorm:"index;not null"`
	Title        string `json:"title"`
	Slug         string `json:"slug" gorm:"index"` // unique within its module, enforced on write
	Description  string `json:"description"`
	OrderIndex   int    `json:"order_index" gorm:"index;default:0"` // unique within its module, enforced on write
	IsActive     bool   `json:"is_active" gorm:"default:true"`
	IsPublished  bool   `json:"is_published" gorm:"default:false"`
	RequiresQuiz bool   `json:"requires_quiz" gorm:"default:false"`
	RequiresCase bool   `json:"requires_case" gorm:"default:false"`
	PassingScore int    `json:"passing_score" gorm:"default:70"` // percent, for lessons with a required quiz
	IsDeleted    bool   `gorm:"default:false"`
}
