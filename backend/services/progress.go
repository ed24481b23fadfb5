package services

import (
	"log"
	"math"

	"lms/backend/models"

	"gorm.io/gorm"
)

// ProgressService recomputes course-level completion from durable facts:
// completed required lessons and completed (passing where required) attempts
// on required tests. It only ever writes to the enrollment row, so redundant
// or concurrent recomputes converge on the same stored values.
type ProgressService struct {
	DB     *gorm.DB
	Logger *log.Logger
	Events *EventPublisher
}

func NewProgressService(db *gorm.DB, logger *log.Logger, events *EventPublisher) *ProgressService {
	return &ProgressService{DB: db, Logger: logger, Events: events}
}

// ComputeProgress rounds completed/total to a whole percentage.
func ComputeProgress(completedItems, totalItems int) int {
	if totalItems <= 0 {
		return 0
	}
	return int(math.Round(float64(completedItems) / float64(totalItems) * 100))
}

// Recompute refreshes enrollment progress for (user, course). Safe to call
// redundantly; last writer wins except completion_date, which is set-if-null
// inside the update statement itself.
func (s *ProgressService) Recompute(userID, courseID uint) (int, error) {
	var totalLessons int64
	if err := s.DB.Model(&models.Lesson{}).
		Where("course_id = ? AND is_required = ?", courseID, true).
		Count(&totalLessons).Error; err != nil {
		return 0, err
	}

	var completedLessons int64
	if err := s.DB.Model(&models.LessonProgress{}).
		Joins("JOIN lessons ON lessons.id = lesson_progresses.lesson_id AND lessons.deleted_at IS NULL").
		Where("lesson_progresses.user_id = ? AND lesson_progresses.course_id = ? AND lesson_progresses.is_completed = ? AND lessons.is_required = ?",
			userID, courseID, true, true).
		Count(&completedLessons).Error; err != nil {
		return 0, err
	}

	var requiredTests []models.Test
	if err := s.DB.Select("id", "is_passing_required").
		Where("course_id = ? AND is_required = ? AND status <> ?", courseID, true, models.TestStatusDeleted).
		Find(&requiredTests).Error; err != nil {
		return 0, err
	}

	completedTests := 0
	for _, test := range requiredTests {
		query := s.DB.Model(&models.TestAttempt{}).
			Where("test_id = ? AND user_id = ? AND status = ?", test.ID, userID, models.AttemptCompleted)
		if test.IsPassingRequired {
			query = query.Where("passed = ?", true)
		}
		var count int64
		if err := query.Count(&count).Error; err != nil {
			return 0, err
		}
		if count > 0 {
			completedTests++
		}
	}

	totalItems := int(totalLessons) + len(requiredTests)
	completedItems := int(completedLessons) + completedTests
	percent := ComputeProgress(completedItems, totalItems)

	// Single statement so completion_date is only ever set once and status
	// never flips an untouched enrollment out of its initial state.
	res := s.DB.Exec(`
		UPDATE course_enrollments
		SET progress = ?,
		    status = CASE
		        WHEN ? >= 100 THEN 'completed'
		        WHEN ? > 0 THEN 'active'
		        ELSE status
		    END,
		    completion_date = CASE
		        WHEN ? >= 100 AND completion_date IS NULL THEN NOW()
		        ELSE completion_date
		    END,
		    updated_at = NOW()
		WHERE user_id = ? AND course_id = ? AND deleted_at IS NULL AND status <> 'dropped'`,
		percent, percent, percent, percent, userID, courseID)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		// Not enrolled; nothing to update.
		return percent, nil
	}

	s.Events.Publish("enrollment.progress", map[string]interface{}{
		"user_id":   userID,
		"course_id": courseID,
		"progress":  percent,
	})
	return percent, nil
}
