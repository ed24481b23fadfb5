package services

import (
	"errors"
	"log"
	"time"

	"lms/backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Default thresholds when a lesson does not set its own.
const (
	defaultMinTimeSeconds  = 60
	defaultMinVideoPercent = 80
	// Fraction of the lesson's nominal duration a learner must spend when
	// min_time_seconds is unset.
	durationTimeFactor = 0.8
)

// MinTimeSeconds resolves the effective time threshold for a lesson.
func MinTimeSeconds(lesson *models.Lesson) int {
	if lesson.MinTimeSeconds > 0 {
		return lesson.MinTimeSeconds
	}
	if lesson.DurationMinutes > 0 {
		return int(float64(lesson.DurationMinutes) * 60 * durationTimeFactor)
	}
	return defaultMinTimeSeconds
}

// MinVideoPercent resolves the effective video threshold for a lesson.
func MinVideoPercent(lesson *models.Lesson) int {
	if lesson.MinVideoPercent > 0 {
		return lesson.MinVideoPercent
	}
	return defaultMinVideoPercent
}

// RequirementStatus is the per-lesson completion breakdown returned to the
// learner.
type RequirementStatus struct {
	TimeRequired       bool    `json:"time_required"`
	TimeSpentSeconds   int     `json:"time_spent_seconds"`
	MinTimeSeconds     int     `json:"min_time_seconds"`
	TimeRequirementMet bool    `json:"time_requirement_met"`
	VideoRequired      bool    `json:"video_required"`
	VideoPercent       float64 `json:"video_progress_percent"`
	MinVideoPercent    int     `json:"min_video_percent"`
	VideoMet           bool    `json:"video_requirement_met"`
	QuizRequired       bool    `json:"quiz_required"`
	QuizPassed         bool    `json:"quiz_passed"`
	IsCompleted        bool    `json:"is_completed"`
	CanComplete        bool    `json:"can_complete"`
}

// Evaluate recomputes the gate from live counters and the lesson's current
// thresholds. Stored *_requirement_met flags are a convenience for readers;
// the gate itself always re-derives them so a threshold change takes effect
// immediately.
func Evaluate(lesson *models.Lesson, progress *models.LessonProgress) RequirementStatus {
	if progress == nil {
		progress = &models.LessonProgress{}
	}
	status := RequirementStatus{
		TimeRequired:     lesson.RequireTimeTracking,
		TimeSpentSeconds: progress.TimeSpentSeconds,
		MinTimeSeconds:   MinTimeSeconds(lesson),
		VideoRequired:    lesson.RequireVideoCompletion,
		VideoPercent:     progress.VideoProgressPercent,
		MinVideoPercent:  MinVideoPercent(lesson),
		QuizRequired:     lesson.RequireQuizPass,
		QuizPassed:       progress.QuizPassed,
		IsCompleted:      progress.IsCompleted,
	}
	status.TimeRequirementMet = progress.TimeSpentSeconds >= status.MinTimeSeconds
	status.VideoMet = progress.VideoProgressPercent >= float64(status.MinVideoPercent)
	status.CanComplete = (!status.TimeRequired || status.TimeRequirementMet) &&
		(!status.VideoRequired || status.VideoMet) &&
		(!status.QuizRequired || status.QuizPassed)
	return status
}

// FirstUnmet returns the blocking requirement in the fixed order
// time, video, quiz, or nil when the gate is open.
func (s RequirementStatus) FirstUnmet() *RequirementError {
	if s.TimeRequired && !s.TimeRequirementMet {
		return newTimeRequirementError(s.MinTimeSeconds, s.TimeSpentSeconds)
	}
	if s.VideoRequired && !s.VideoMet {
		return newVideoRequirementError(s.MinVideoPercent, s.VideoPercent)
	}
	if s.QuizRequired && !s.QuizPassed {
		return newQuizRequirementError()
	}
	return nil
}

// RequirementService tracks per-lesson completion requirements. All counter
// updates are single-statement upserts so concurrent tabs cannot lose
// increments or regress the video high-water mark.
type RequirementService struct {
	DB       *gorm.DB
	Logger   *log.Logger
	Progress *ProgressService
	Tasks    *TaskRunner
	Events   *EventPublisher
}

func NewRequirementService(db *gorm.DB, logger *log.Logger, progress *ProgressService, tasks *TaskRunner, events *EventPublisher) *RequirementService {
	return &RequirementService{DB: db, Logger: logger, Progress: progress, Tasks: tasks, Events: events}
}

func (s *RequirementService) lesson(lessonID uint) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := s.DB.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, err
	}
	return &lesson, nil
}

func (s *RequirementService) progressRow(userID, lessonID uint) (*models.LessonProgress, error) {
	var progress models.LessonProgress
	err := s.DB.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&progress).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &progress, nil
}

// TrackTime adds a time delta to the learner's counter. The increment happens
// in the database, insert-if-absent else add, so N concurrent calls always
// sum to the total of their deltas.
func (s *RequirementService) TrackTime(userID, lessonID uint, seconds int) (*models.LessonProgress, RequirementStatus, error) {
	lesson, err := s.lesson(lessonID)
	if err != nil {
		return nil, RequirementStatus{}, err
	}

	row := models.LessonProgress{
		UserID:           userID,
		LessonID:         lessonID,
		CourseID:         lesson.CourseID,
		TimeSpentSeconds: seconds,
	}
	err = s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"time_spent_seconds": gorm.Expr("lesson_progresses.time_spent_seconds + ?", seconds),
			"updated_at":         gorm.Expr("NOW()"),
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, RequirementStatus{}, err
	}

	return s.refreshFlags(userID, lesson)
}

// TrackVideo records the furthest point reached in the lesson video. Percent
// is a monotonic maximum: a replay from the start never regresses it.
func (s *RequirementService) TrackVideo(userID, lessonID uint, percent float64, positionSeconds int) (*models.LessonProgress, RequirementStatus, error) {
	lesson, err := s.lesson(lessonID)
	if err != nil {
		return nil, RequirementStatus{}, err
	}

	row := models.LessonProgress{
		UserID:                   userID,
		LessonID:                 lessonID,
		CourseID:                 lesson.CourseID,
		VideoProgressPercent:     percent,
		VideoLastPositionSeconds: positionSeconds,
	}
	err = s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"video_progress_percent":      gorm.Expr("GREATEST(lesson_progresses.video_progress_percent, ?)", percent),
			"video_last_position_seconds": positionSeconds,
			"updated_at":                  gorm.Expr("NOW()"),
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, RequirementStatus{}, err
	}

	return s.refreshFlags(userID, lesson)
}

// refreshFlags re-derives the stored requirement flags from the counters in
// one statement, then reloads the row.
func (s *RequirementService) refreshFlags(userID uint, lesson *models.Lesson) (*models.LessonProgress, RequirementStatus, error) {
	err := s.DB.Model(&models.LessonProgress{}).
		Where("user_id = ? AND lesson_id = ?", userID, lesson.ID).
		Updates(map[string]interface{}{
			"time_requirement_met":  gorm.Expr("time_spent_seconds >= ?", MinTimeSeconds(lesson)),
			"video_requirement_met": gorm.Expr("video_progress_percent >= ?", MinVideoPercent(lesson)),
		}).Error
	if err != nil {
		return nil, RequirementStatus{}, err
	}

	progress, err := s.progressRow(userID, lesson.ID)
	if err != nil {
		return nil, RequirementStatus{}, err
	}
	return progress, Evaluate(lesson, progress), nil
}

// markQuizPassed flips the quiz gate for a lesson once a linked test attempt
// passes. The flag is sticky and the stored score keeps the best result.
func markQuizPassed(db *gorm.DB, userID uint, lesson *models.Lesson, scorePercent float64) error {
	row := models.LessonProgress{
		UserID:     userID,
		LessonID:   lesson.ID,
		CourseID:   lesson.CourseID,
		QuizScore:  &scorePercent,
		QuizPassed: true,
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quiz_passed": true,
			"quiz_score":  gorm.Expr("GREATEST(COALESCE(lesson_progresses.quiz_score, 0), ?)", scorePercent),
			"updated_at":  gorm.Expr("NOW()"),
		}),
	}).Create(&row).Error
}

// GetProgress returns the gate breakdown without mutating anything.
func (s *RequirementService) GetProgress(userID, lessonID uint) (*models.LessonProgress, RequirementStatus, error) {
	lesson, err := s.lesson(lessonID)
	if err != nil {
		return nil, RequirementStatus{}, err
	}
	progress, err := s.progressRow(userID, lessonID)
	if err != nil {
		return nil, RequirementStatus{}, err
	}
	return progress, Evaluate(lesson, progress), nil
}

// Complete marks the lesson done once every enabled requirement is satisfied.
// Re-completing a completed lesson is a no-op success. The course aggregate
// is refreshed off the request path.
func (s *RequirementService) Complete(userID, lessonID uint) (RequirementStatus, error) {
	lesson, err := s.lesson(lessonID)
	if err != nil {
		return RequirementStatus{}, err
	}
	progress, err := s.progressRow(userID, lessonID)
	if err != nil {
		return RequirementStatus{}, err
	}

	status := Evaluate(lesson, progress)
	if status.IsCompleted {
		return status, nil
	}
	if unmet := status.FirstUnmet(); unmet != nil {
		return status, unmet
	}

	now := time.Now()
	row := models.LessonProgress{
		UserID:      userID,
		LessonID:    lessonID,
		CourseID:    lesson.CourseID,
		IsCompleted: true,
		CompletedAt: &now,
	}
	err = s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"is_completed": true,
			"completed_at": gorm.Expr("COALESCE(lesson_progresses.completed_at, ?)", now),
			"updated_at":   gorm.Expr("NOW()"),
		}),
	}).Create(&row).Error
	if err != nil {
		return status, err
	}
	status.IsCompleted = true

	s.Events.Publish("lesson.completed", map[string]interface{}{
		"user_id":   userID,
		"lesson_id": lessonID,
		"course_id": lesson.CourseID,
	})

	s.Tasks.Go("after-lesson-complete", func() error {
		if _, err := s.Progress.Recompute(userID, lesson.CourseID); err != nil {
			return err
		}
		return s.DB.Create(&models.ActivityLog{
			UserID:      userID,
			Action:      "complete_lesson",
			TargetTable: "lessons",
			TargetID:    lessonID,
			Description: "Completed lesson: " + lesson.Title,
		}).Error
	})

	return status, nil
}

// CourseTimeSummary is one course's share of a learner's study time.
type CourseTimeSummary struct {
	CourseID         uint   `json:"course_id"`
	CourseTitle      string `json:"course_title"`
	TimeSpentSeconds int    `json:"time_spent_seconds"`
	LessonsCompleted int    `json:"lessons_completed"`
}

// LearningSummary aggregates tracked time per course for one learner.
func (s *RequirementService) LearningSummary(userID uint) ([]CourseTimeSummary, int, error) {
	var rows []CourseTimeSummary
	err := s.DB.Model(&models.LessonProgress{}).
		Select("lesson_progresses.course_id AS course_id, courses.title AS course_title, SUM(lesson_progresses.time_spent_seconds) AS time_spent_seconds, SUM(CASE WHEN lesson_progresses.is_completed THEN 1 ELSE 0 END) AS lessons_completed").
		Joins("JOIN courses ON courses.id = lesson_progresses.course_id").
		Where("lesson_progresses.user_id = ?", userID).
		Group("lesson_progresses.course_id, courses.title").
		Order("time_spent_seconds DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	total := 0
	for _, row := range rows {
		total += row.TimeSpentSeconds
	}
	return rows, total, nil
}
