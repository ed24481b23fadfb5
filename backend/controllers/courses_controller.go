package controllers

import (
	"errors"
	"log"
	"time"

	"lms/backend/config"
	"lms/backend/models"
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CoursesController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Logger   *log.Logger
	Progress *services.ProgressService
	Tasks    *services.TaskRunner
}

func NewCoursesController(db *gorm.DB, cfg *config.Config, logger *log.Logger, progress *services.ProgressService, tasks *services.TaskRunner) *CoursesController {
	return &CoursesController{DB: db, Cfg: cfg, Logger: logger, Progress: progress, Tasks: tasks}
}

// CreateCourse godoc
// @Summary Create a course
// @Tags admin
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /admin/courses [post]
func (cc *CoursesController) CreateCourse(c *fiber.Ctx) error {
	identity, err := callerIdentity(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	type CourseInput struct {
		Title       string `json:"title" validate:"required"`
		ShortDesc   string `json:"short_desc"`
		Description string `json:"description"`
		Difficulty  string `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
		Topic       string `json:"topic"`
	}

	var input CourseInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(input); err != nil {
		return utils.ValidationError(c, validationErrors(err))
	}

	course := models.Course{
		Title:       input.Title,
		ShortDesc:   input.ShortDesc,
		Description: input.Description,
		Difficulty:  input.Difficulty,
		Topic:       input.Topic,
		AuthorID:    identity.UserID,
	}
	if err := cc.DB.Create(&course).Error; err != nil {
		return utils.InternalServerError(c, "Could not create course")
	}

	return c.JSON(fiber.Map{
		"message": "Course created",
		"course":  course,
	})
}

// UpdateCourse updates course metadata and publication state.
func (cc *CoursesController) UpdateCourse(c *fiber.Ctx) error {
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	type UpdateInput struct {
		Title       *string `json:"title"`
		ShortDesc   *string `json:"short_desc"`
		Description *string `json:"description"`
		Difficulty  *string `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
		Topic       *string `json:"topic"`
		IsPublished *bool   `json:"is_published"`
	}

	var input UpdateInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(input); err != nil {
		return utils.ValidationError(c, validationErrors(err))
	}

	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if input.Title != nil {
		course.Title = *input.Title
	}
	if input.ShortDesc != nil {
		course.ShortDesc = *input.ShortDesc
	}
	if input.Description != nil {
		course.Description = *input.Description
	}
	if input.Difficulty != nil {
		course.Difficulty = *input.Difficulty
	}
	if input.Topic != nil {
		course.Topic = *input.Topic
	}
	if input.IsPublished != nil {
		course.IsPublished = *input.IsPublished
	}

	if err := cc.DB.Save(&course).Error; err != nil {
		return utils.InternalServerError(c, "Could not update course")
	}

	return c.JSON(fiber.Map{
		"message": "Course updated",
		"course":  course,
	})
}

// DeleteCourse soft-deletes a course. Enrollments and progress rows are kept
// for reporting.
func (cc *CoursesController) DeleteCourse(c *fiber.Ctx) error {
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	res := cc.DB.Delete(&models.Course{}, courseID)
	if res.Error != nil {
		return utils.InternalServerError(c, "Could not delete course")
	}
	if res.RowsAffected == 0 {
		return utils.NotFound(c, "Course not found")
	}

	return c.JSON(fiber.Map{"message": "Course deleted"})
}

// AddLesson appends a lesson to a course, placing it after the current last
// lesson unless a sequence order is given.
func (cc *CoursesController) AddLesson(c *fiber.Ctx) error {
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	type LessonInput struct {
		Title                  string `json:"title" validate:"required"`
		Description            string `json:"description"`
		Content                string `json:"content"`
		VideoURL               string `json:"video_url"`
		DurationMinutes        int    `json:"duration_minutes" validate:"gte=0"`
		SequenceOrder          int    `json:"sequence_order" validate:"gte=0"`
		IsRequired             *bool  `json:"is_required"`
		MinTimeSeconds         int    `json:"min_time_seconds" validate:"gte=0"`
		MinVideoPercent        int    `json:"min_video_percent" validate:"gte=0,lte=100"`
		RequireTimeTracking    *bool  `json:"require_time_tracking"`
		RequireVideoCompletion bool   `json:"require_video_completion"`
		RequireQuizPass        bool   `json:"require_quiz_pass"`
		QuizTestID             *uint  `json:"quiz_test_id"`
	}

	var input LessonInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(input); err != nil {
		return utils.ValidationError(c, validationErrors(err))
	}

	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if input.RequireQuizPass && input.QuizTestID == nil {
		return utils.BadRequest(c, "Quiz requirement needs a quiz test")
	}
	if input.QuizTestID != nil {
		var quiz models.Test
		if err := cc.DB.First(&quiz, *input.QuizTestID).Error; err != nil {
			return utils.NotFound(c, "Quiz test not found")
		}
	}

	order := input.SequenceOrder
	if order == 0 {
		var lessonCount int64
		cc.DB.Model(&models.Lesson{}).Where("course_id = ?", courseID).Count(&lessonCount)
		order = int(lessonCount) + 1
	}

	lesson := models.Lesson{
		CourseID:               course.ID,
		Title:                  input.Title,
		Description:            input.Description,
		Content:                input.Content,
		VideoURL:               input.VideoURL,
		DurationMinutes:        input.DurationMinutes,
		SequenceOrder:          order,
		IsRequired:             input.IsRequired == nil || *input.IsRequired,
		MinTimeSeconds:         input.MinTimeSeconds,
		MinVideoPercent:        input.MinVideoPercent,
		RequireTimeTracking:    input.RequireTimeTracking == nil || *input.RequireTimeTracking,
		RequireVideoCompletion: input.RequireVideoCompletion,
		RequireQuizPass:        input.RequireQuizPass,
		QuizTestID:             input.QuizTestID,
	}
	if err := cc.DB.Create(&lesson).Error; err != nil {
		return utils.InternalServerError(c, "Could not create lesson")
	}

	return c.JSON(fiber.Map{
		"message": "Lesson added",
		"lesson":  lesson,
	})
}

// UpdateLesson updates lesson content and completion requirements.
func (cc *CoursesController) UpdateLesson(c *fiber.Ctx) error {
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}
	lessonID, err := paramID(c, "lessonId")
	if err != nil {
		return utils.BadRequest(c, "Invalid lesson ID")
	}

	type UpdateInput struct {
		Title                  *string `json:"title"`
		Description            *string `json:"description"`
		Content                *string `json:"content"`
		VideoURL               *string `json:"video_url"`
		DurationMinutes        *int    `json:"duration_minutes"`
		SequenceOrder          *int    `json:"sequence_order"`
		IsRequired             *bool   `json:"is_required"`
		MinTimeSeconds         *int    `json:"min_time_seconds"`
		MinVideoPercent        *int    `json:"min_video_percent"`
		RequireTimeTracking    *bool   `json:"require_time_tracking"`
		RequireVideoCompletion *bool   `json:"require_video_completion"`
		RequireQuizPass        *bool   `json:"require_quiz_pass"`
		QuizTestID             *uint   `json:"quiz_test_id"`
	}

	var input UpdateInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var lesson models.Lesson
	if err := cc.DB.Where("id = ? AND course_id = ?", lessonID, courseID).First(&lesson).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Lesson not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if input.Title != nil {
		lesson.Title = *input.Title
	}
	if input.Description != nil {
		lesson.Description = *input.Description
	}
	if input.Content != nil {
		lesson.Content = *input.Content
	}
	if input.VideoURL != nil {
		lesson.VideoURL = *input.VideoURL
	}
	if input.DurationMinutes != nil {
		lesson.DurationMinutes = *input.DurationMinutes
	}
	if input.SequenceOrder != nil && *input.SequenceOrder > 0 {
		lesson.SequenceOrder = *input.SequenceOrder
	}
	if input.IsRequired != nil {
		lesson.IsRequired = *input.IsRequired
	}
	if input.MinTimeSeconds != nil {
		lesson.MinTimeSeconds = *input.MinTimeSeconds
	}
	if input.MinVideoPercent != nil {
		lesson.MinVideoPercent = *input.MinVideoPercent
	}
	if input.RequireTimeTracking != nil {
		lesson.RequireTimeTracking = *input.RequireTimeTracking
	}
	if input.RequireVideoCompletion != nil {
		lesson.RequireVideoCompletion = *input.RequireVideoCompletion
	}
	if input.RequireQuizPass != nil {
		lesson.RequireQuizPass = *input.RequireQuizPass
	}
	if input.QuizTestID != nil {
		lesson.QuizTestID = input.QuizTestID
	}
	if lesson.RequireQuizPass && lesson.QuizTestID == nil {
		return utils.BadRequest(c, "Quiz requirement needs a quiz test")
	}

	if err := cc.DB.Save(&lesson).Error; err != nil {
		return utils.InternalServerError(c, "Could not update lesson")
	}

	return c.JSON(fiber.Map{
		"message": "Lesson updated",
		"lesson":  lesson,
	})
}

// ReorderLessons assigns a new sequence order from the given lesson ID list.
func (cc *CoursesController) ReorderLessons(c *fiber.Ctx) error {
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	type ReorderInput struct {
		LessonIDs []uint `json:"lesson_ids" validate:"required,min=1"`
	}

	var input ReorderInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(input); err != nil {
		return utils.ValidationError(c, validationErrors(err))
	}

	var lessonCount int64
	cc.DB.Model(&models.Lesson{}).
		Where("course_id = ? AND id IN ?", courseID, input.LessonIDs).
		Count(&lessonCount)
	if int(lessonCount) != len(input.LessonIDs) {
		return utils.BadRequest(c, "Lesson list does not match the course")
	}

	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		for i, lessonID := range input.LessonIDs {
			res := tx.Model(&models.Lesson{}).
				Where("id = ? AND course_id = ?", lessonID, courseID).
				Update("sequence_order", i+1)
			if res.Error != nil {
				return res.Error
			}
		}
		return nil
	})
	if err != nil {
		return utils.InternalServerError(c, "Could not reorder lessons")
	}

	return c.JSON(fiber.Map{"message": "Lessons reordered"})
}

// GetCourseDetails returns a course with its lessons in sequence order and,
// for an enrolled caller, the enrollment row.
func (cc *CoursesController) GetCourseDetails(c *fiber.Ctx) error {
	identity, err := callerIdentity(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	err = cc.DB.
		Preload("Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_order ASC, id ASC")
		}).
		First(&course, courseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	response := fiber.Map{"course": course}

	var enrollment models.CourseEnrollment
	err = cc.DB.
		Where("user_id = ? AND course_id = ?", identity.UserID, courseID).
		First(&enrollment).Error
	if err == nil {
		response["enrollment"] = enrollment
	}

	return c.JSON(response)
}

// Enroll godoc
// @Summary Enroll in a course
// @Description Creates an active enrollment; re-enrolling reactivates a
// dropped one and is otherwise a no-op
// @Tags courses
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/enroll [post]
func (cc *CoursesController) Enroll(c *fiber.Ctx) error {
	identity, err := callerIdentity(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}
	if !course.IsPublished {
		return utils.NotFound(c, "Course not found")
	}

	now := time.Now()
	enrollment := models.CourseEnrollment{
		UserID:         identity.UserID,
		CourseID:       course.ID,
		Status:         models.EnrollmentActive,
		LastAccessDate: &now,
	}
	err = cc.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":           models.EnrollmentActive,
			"last_access_date": now,
		}),
	}).Create(&enrollment).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not enroll")
	}

	userID := identity.UserID
	cc.Tasks.Go("enroll-activity", func() error {
		return cc.DB.Create(&models.ActivityLog{
			UserID:      userID,
			Action:      "enroll_course",
			TargetTable: "courses",
			TargetID:    course.ID,
		}).Error
	})

	return c.JSON(fiber.Map{
		"message":    "Enrolled",
		"enrollment": enrollment,
	})
}

// DropEnrollment marks the caller's enrollment as dropped. Progress rows are
// kept so re-enrolling resumes where the learner left off.
func (cc *CoursesController) DropEnrollment(c *fiber.Ctx) error {
	identity, err := callerIdentity(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	res := cc.DB.Model(&models.CourseEnrollment{}).
		Where("user_id = ? AND course_id = ? AND status <> ?", identity.UserID, courseID, models.EnrollmentDropped).
		Update("status", models.EnrollmentDropped)
	if res.Error != nil {
		return utils.InternalServerError(c, "Could not update enrollment")
	}
	if res.RowsAffected == 0 {
		return utils.NotFound(c, "Enrollment not found")
	}

	return c.JSON(fiber.Map{"message": "Enrollment dropped"})
}
