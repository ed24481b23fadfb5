package models

import (
	"time"

	"gorm.io/gorm"
)

// LessonProgress is created lazily on the first tracking event and never
// deleted. Counters only grow: time accumulates, video percent is a running
// maximum. The requirement flags are recomputed server-side on every tracking
// update.
type LessonProgress struct {
	gorm.Model
	UserID   uint `gorm:"uniqueIndex:idx_progress_user_lesson" json:"user_id"`
	LessonID uint `gorm:"uniqueIndex:idx_progress_user_lesson" json:"lesson_id"`
	CourseID uint `gorm:"index" json:"course_id"`

	TimeSpentSeconds   int  `gorm:"default:0" json:"time_spent_seconds"`
	TimeRequirementMet bool `gorm:"default:false" json:"time_requirement_met"`

	VideoProgressPercent     float64 `gorm:"default:0" json:"video_progress_percent"`
	VideoLastPositionSeconds int     `gorm:"default:0" json:"video_last_position_seconds"`
	VideoRequirementMet      bool    `gorm:"default:false" json:"video_requirement_met"`

	QuizScore  *float64 `json:"quiz_score"`
	QuizPassed bool     `gorm:"default:false" json:"quiz_passed"`

	IsCompleted bool       `gorm:"default:false" json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at"`
}

// ActivityLog rows are written best-effort by the async task runner;
// a failed insert never fails the action that produced it.
type ActivityLog struct {
	gorm.Model
	UserID        uint   `gorm:"index"`
	Action        string // start_test, submit_test, complete_lesson, enroll_course
	TargetTable   string
	TargetID      uint
	Description   string
	CorrelationID string `gorm:"type:varchar(36)"`
}
