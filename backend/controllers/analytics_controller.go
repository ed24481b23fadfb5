package controllers

import (
	"errors"
	"log"

	"lms/backend/config"
	"lms/backend/models"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AnalyticsController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Logger *log.Logger
}

func NewAnalyticsController(db *gorm.DB, cfg *config.Config, logger *log.Logger) *AnalyticsController {
	return &AnalyticsController{DB: db, Cfg: cfg, Logger: logger}
}

// GetTestStatistics godoc
// @Summary Aggregate statistics for a test
// @Description Attempt counts, average score and pass rate over completed
// attempts
// @Tags analytics
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /analytics/tests/{id} [get]
func (ac *AnalyticsController) GetTestStatistics(c *fiber.Ctx) error {
	testID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid test ID")
	}

	var test models.Test
	if err := ac.DB.First(&test, testID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Test not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	type attemptStats struct {
		TotalAttempts     int64   `json:"total_attempts"`
		CompletedAttempts int64   `json:"completed_attempts"`
		DistinctUsers     int64   `json:"distinct_users"`
		AverageScore      float64 `json:"average_score"`
		AveragePercentage float64 `json:"average_percentage"`
		PassedAttempts    int64   `json:"passed_attempts"`
	}

	var stats attemptStats
	err = ac.DB.Model(&models.TestAttempt{}).
		Select(`COUNT(*) AS total_attempts,
			SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END) AS completed_attempts,
			COUNT(DISTINCT user_id) AS distinct_users,
			COALESCE(AVG(CASE WHEN status = 'completed' THEN score END), 0) AS average_score,
			COALESCE(AVG(CASE WHEN status = 'completed' THEN percentage END), 0) AS average_percentage,
			SUM(CASE WHEN status = 'completed' AND passed THEN 1 ELSE 0 END) AS passed_attempts`).
		Where("test_id = ?", testID).
		Scan(&stats).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	passRate := 0.0
	if stats.CompletedAttempts > 0 {
		passRate = float64(stats.PassedAttempts) / float64(stats.CompletedAttempts) * 100
	}

	return c.JSON(fiber.Map{
		"test_id":            test.ID,
		"title":              test.Title,
		"total_attempts":     stats.TotalAttempts,
		"completed_attempts": stats.CompletedAttempts,
		"distinct_users":     stats.DistinctUsers,
		"average_score":      stats.AverageScore,
		"average_percentage": stats.AveragePercentage,
		"pass_rate":          passRate,
	})
}

// GetCourseAnalytics returns enrollment and completion aggregates for a
// course.
func (ac *AnalyticsController) GetCourseAnalytics(c *fiber.Ctx) error {
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := ac.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	type enrollmentStats struct {
		TotalEnrollments int64   `json:"total_enrollments"`
		ActiveCount      int64   `json:"active_count"`
		CompletedCount   int64   `json:"completed_count"`
		DroppedCount     int64   `json:"dropped_count"`
		AverageProgress  float64 `json:"average_progress"`
	}

	var stats enrollmentStats
	err = ac.DB.Model(&models.CourseEnrollment{}).
		Select(`COUNT(*) AS total_enrollments,
			SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END) AS active_count,
			SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END) AS completed_count,
			SUM(CASE WHEN status = 'dropped' THEN 1 ELSE 0 END) AS dropped_count,
			COALESCE(AVG(CASE WHEN status <> 'dropped' THEN progress END), 0) AS average_progress`).
		Where("course_id = ?", courseID).
		Scan(&stats).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	completionRate := 0.0
	if stats.TotalEnrollments > 0 {
		completionRate = float64(stats.CompletedCount) / float64(stats.TotalEnrollments) * 100
	}

	return c.JSON(fiber.Map{
		"course_id":         course.ID,
		"title":             course.Title,
		"total_enrollments": stats.TotalEnrollments,
		"active":            stats.ActiveCount,
		"completed":         stats.CompletedCount,
		"dropped":           stats.DroppedCount,
		"average_progress":  stats.AverageProgress,
		"completion_rate":   completionRate,
	})
}
