package controllers

import (
	"log"

	"lms/backend/config"
	"lms/backend/models"
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ProgressController struct {
	DB           *gorm.DB
	Cfg          *config.Config
	Logger       *log.Logger
	Progress     *services.ProgressService
	Requirements *services.RequirementService
}

func NewProgressController(db *gorm.DB, cfg *config.Config, logger *log.Logger, progress *services.ProgressService, requirements *services.RequirementService) *ProgressController {
	return &ProgressController{DB: db, Cfg: cfg, Logger: logger, Progress: progress, Requirements: requirements}
}

// GetEnrollments godoc
// @Summary List the caller's enrollments
// @Tags progress
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /progress/enrollments [get]
func (pc *ProgressController) GetEnrollments(c *fiber.Ctx) error {
	identity, err := callerIdentity(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var enrollments []models.CourseEnrollment
	query := pc.DB.Where("user_id = ?", identity.UserID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("updated_at DESC").Find(&enrollments).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(enrollments))
	for _, e := range enrollments {
		var course models.Course
		if err := pc.DB.Select("id", "title", "short_desc", "topic").First(&course, e.CourseID).Error; err != nil {
			continue
		}
		result = append(result, fiber.Map{
			"enrollment": e,
			"course":     course,
		})
	}

	return c.JSON(fiber.Map{"enrollments": result})
}

// GetCourseProgress returns the caller's enrollment with per-lesson detail for
// one course.
func (pc *ProgressController) GetCourseProgress(c *fiber.Ctx) error {
	identity, err := callerIdentity(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var enrollment models.CourseEnrollment
	err = pc.DB.Where("user_id = ? AND course_id = ?", identity.UserID, courseID).First(&enrollment).Error
	if err != nil {
		return utils.NotFound(c, "Enrollment not found")
	}

	var lessons []models.Lesson
	if err := pc.DB.Where("course_id = ?", courseID).Order("sequence_order ASC, id ASC").Find(&lessons).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	var rows []models.LessonProgress
	if err := pc.DB.Where("user_id = ? AND course_id = ?", identity.UserID, courseID).Find(&rows).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	byLesson := make(map[uint]*models.LessonProgress, len(rows))
	for i := range rows {
		byLesson[rows[i].LessonID] = &rows[i]
	}

	lessonDetail := make([]fiber.Map, 0, len(lessons))
	for i := range lessons {
		lesson := &lessons[i]
		status := services.Evaluate(lesson, byLesson[lesson.ID])
		lessonDetail = append(lessonDetail, fiber.Map{
			"id":             lesson.ID,
			"title":          lesson.Title,
			"sequence_order": lesson.SequenceOrder,
			"is_required":    lesson.IsRequired,
			"requirements":   status,
		})
	}

	return c.JSON(fiber.Map{
		"enrollment": enrollment,
		"lessons":    lessonDetail,
	})
}

// RecomputeProgress forces a fresh aggregate for the caller's enrollment.
// Normally the async path keeps it current; this is the manual escape hatch.
func (pc *ProgressController) RecomputeProgress(c *fiber.Ctx) error {
	identity, err := callerIdentity(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	progress, err := pc.Progress.Recompute(identity.UserID, courseID)
	if err != nil {
		return serviceError(c, pc.Logger, err)
	}

	return c.JSON(fiber.Map{"progress": progress})
}

// GetLearningSummary godoc
// @Summary Learning time summary
// @Description Total tracked time for the caller, broken down by course
// @Tags progress
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /progress/summary [get]
func (pc *ProgressController) GetLearningSummary(c *fiber.Ctx) error {
	identity, err := callerIdentity(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courses, totalSeconds, err := pc.Requirements.LearningSummary(identity.UserID)
	if err != nil {
		return serviceError(c, pc.Logger, err)
	}

	return c.JSON(fiber.Map{
		"total_time_seconds": totalSeconds,
		"courses":            courses,
	})
}
