package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "instructor"
	RoleHR         Role = "hr"
	RoleStudent    Role = "student"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleInstructor, RoleHR, RoleStudent:
		return true
	default:
		return false
	}
}

// Capability names an action checked at the authorization boundary. Handlers
// never compare role strings directly.
type Capability string

const (
	CapManageCourses  Capability = "manage_courses"
	CapManageUsers    Capability = "manage_users"
	CapManageTests    Capability = "manage_tests"
	CapDeleteContent  Capability = "delete_content"
	CapViewAnalytics  Capability = "view_analytics"
	CapTakeTests      Capability = "take_tests"
	CapTrackProgress  Capability = "track_progress"
	CapEnrollInCourse Capability = "enroll_in_course"
)

var roleCapabilities = map[Role]map[Capability]bool{
	RoleAdmin: {
		CapManageCourses:  true,
		CapManageUsers:    true,
		CapManageTests:    true,
		CapDeleteContent:  true,
		CapViewAnalytics:  true,
		CapTakeTests:      true,
		CapTrackProgress:  true,
		CapEnrollInCourse: true,
	},
	RoleInstructor: {
		CapManageCourses: true,
		CapManageTests:   true,
		CapDeleteContent: true,
		CapViewAnalytics: true,
	},
	RoleHR: {
		CapManageCourses: true,
		CapManageTests:   true,
		CapViewAnalytics: true,
	},
	RoleStudent: {
		CapTakeTests:      true,
		CapTrackProgress:  true,
		CapEnrollInCourse: true,
	},
}

func (r Role) Can(cap Capability) bool {
	return roleCapabilities[r][cap]
}

type User struct {
	gorm.Model
	Username     string `gorm:"unique;not null" json:"username"`
	Email        string `gorm:"unique;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         Role   `gorm:"type:varchar(16);default:student" json:"role"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Department   string `json:"department"`
}

type LoginHistory struct {
	gorm.Model
	UserID    uint `gorm:"index"`
	LoginTime time.Time
}
