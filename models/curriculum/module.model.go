package curriculum

import "gorm.io/gorm"

// Difficulty tags for modules
const (
	DifficultyBasic        = "BASICO"
	DifficultyIntermediate = "INTERMEDIO"
	DifficultyAdvanced     = "AVANZADO"
)

// Module is a topical unit within a level
type Module struct {
	gorm.Model
	LevelID          *uint  `json:"level_id" gorm:"index"` // nullable: modules can exist unassigned
	Title            string `json:"title"`
	Description      string `json:"description"`
	Difficulty       string `json:"difficulty" gorm:"default:'BASICO'"` // BASICO, INTERMEDIO, AVANZADO
	OrderIndex       int    `json:"order_index" gorm:"index;default:0"` // unique within its level, enforced on write
	EstimatedMinutes int    `json:"estimated_minutes" gorm:"default:0"`
	IsActive         bool   `json:"is_active" gorm:"default:true"`
	IsDeleted        bool   `gorm:"default:false"`
}

// ModulePrerequisite is a directed edge: ModuleID requires RequiredModuleID.
// The edge set must stay acyclic; self references are rejected.
type ModulePrerequisite struct {
	gorm.Model
	ModuleID         uint `json:"module_id" gorm:"index;not null;uniqueIndex:idx_module_prereq"`
	RequiredModuleID uint `json:"required_module_id" gorm:"not null;uniqueIndex:idx_module_prereq"`
	IsDeleted        bool `gorm:"default:false"`
}
