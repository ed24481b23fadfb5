package models

import (
	"time"

	"gorm.io/gorm"
)

type Course struct {
	gorm.Model
	Title       string `json:"title"`
	ShortDesc   string `json:"short_desc"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty"` // beginner, intermediate, advanced
	Topic       string `json:"topic"`
	AuthorID    uint   `json:"author_id"`
	IsPublished bool   `gorm:"default:false" json:"is_published"`
	Lessons     []Lesson
	Tests       []Test
}

type Lesson struct {
	gorm.Model
	CourseID        uint   `gorm:"index" json:"course_id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Content         string `json:"content"`
	VideoURL        string `json:"video_url"`
	DurationMinutes int    `json:"duration_minutes"`
	SequenceOrder   int    `json:"sequence_order"`
	IsRequired      bool   `gorm:"default:true" json:"is_required"`

	// Completion requirements. Zero thresholds fall back to defaults at
	// evaluation time (see services.MinTimeSeconds / MinVideoPercent).
	MinTimeSeconds         int   `json:"min_time_seconds"`
	MinVideoPercent        int   `json:"min_video_percent"`
	RequireTimeTracking    bool  `gorm:"default:true" json:"require_time_tracking"`
	RequireVideoCompletion bool  `gorm:"default:false" json:"require_video_completion"`
	RequireQuizPass        bool  `gorm:"default:false" json:"require_quiz_pass"`
	QuizTestID             *uint `json:"quiz_test_id"`
}

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentDropped   EnrollmentStatus = "dropped"
)

// CourseEnrollment is the only row the progress aggregator writes to.
// Attempt and lesson-progress rows stay owned by their trackers.
type CourseEnrollment struct {
	gorm.Model
	UserID         uint             `gorm:"uniqueIndex:idx_enrollment_user_course" json:"user_id"`
	CourseID       uint             `gorm:"uniqueIndex:idx_enrollment_user_course" json:"course_id"`
	Progress       int              `gorm:"default:0" json:"progress"`
	Status         EnrollmentStatus `gorm:"type:varchar(16);default:active" json:"status"`
	CompletionDate *time.Time       `json:"completion_date"`
	LastAccessDate *time.Time       `json:"last_access_date"`
}
