package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles recognised by the platform
const (
	RoleStudent    = "STUDENT"
	RoleTeacher    = "TEACHER"
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPERADMIN"
)

type User struct {
	gorm.Model
	ProfileImage        string `gorm:"default:''"`
	Name                string `gorm:"default:''"`
	Email               string `gorm:"unique;not null"`
	Mobile              string `gorm:"default:''"`
	Role                string `gorm:"default:'STUDENT'"` // STUDENT, TEACHER, ADMIN, SUPERADMIN
	Password            string `gorm:"not null"`
	Specialty           string `gorm:"default:''"` // e.g. intensivist, respiratory therapist, resident
	Institution         string `gorm:"default:''"`
	IsEmailVerified     bool   `gorm:"default:false"`
	LastLogin           time.Time
	FailedLoginAttempts int        `gorm:"default:0"`
	LastFailedLogin     *time.Time `json:"last_failed_login"`
	IsBlocked           bool       `gorm:"default:false"`
	BlockedUntil        *time.Time `json:"blocked_until"`
	IsDeleted           bool       `gorm:"default:false"`
}
