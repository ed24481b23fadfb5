package controllers

import (
	"log"

	"lms/backend/config"
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type LessonsController struct {
	DB           *gorm.DB
	Cfg          *config.Config
	Logger       *log.Logger
	Requirements *services.RequirementService
}

func NewLessonsController(db *gorm.DB, cfg *config.Config, logger *log.Logger, requirements *services.RequirementService) *LessonsController {
	return &LessonsController{DB: db, Cfg: cfg, Logger: logger, Requirements: requirements}
}

// TrackTime godoc
// @Summary Record time spent on a lesson
// @Description Adds a time delta to the learner's counter for the lesson
// @Tags lessons
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /lessons/{id}/track-time [post]
func (lc *LessonsController) TrackTime(c *fiber.Ctx) error {
	identity, err := callerIdentity(c, lc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	lessonID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid lesson ID")
	}

	type TrackInput struct {
		Seconds int `json:"seconds" validate:"required,gt=0,lte=3600"`
	}

	var input TrackInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(input); err != nil {
		return utils.ValidationError(c, validationErrors(err))
	}

	progress, status, err := lc.Requirements.TrackTime(identity.UserID, lessonID, input.Seconds)
	if err != nil {
		return serviceError(c, lc.Logger, err)
	}

	return c.JSON(fiber.Map{
		"progress":     progress,
		"requirements": status,
	})
}

// TrackVideo godoc
// @Summary Record video progress on a lesson
// @Description Stores the furthest watched percent and last position
// @Tags lessons
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /lessons/{id}/track-video [post]
func (lc *LessonsController) TrackVideo(c *fiber.Ctx) error {
	identity, err := callerIdentity(c, lc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	lessonID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid lesson ID")
	}

	type TrackInput struct {
		Percent         float64 `json:"percent" validate:"gte=0,lte=100"`
		PositionSeconds int     `json:"position_seconds" validate:"gte=0"`
	}

	var input TrackInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(input); err != nil {
		return utils.ValidationError(c, validationErrors(err))
	}

	progress, status, err := lc.Requirements.TrackVideo(identity.UserID, lessonID, input.Percent, input.PositionSeconds)
	if err != nil {
		return serviceError(c, lc.Logger, err)
	}

	return c.JSON(fiber.Map{
		"progress":     progress,
		"requirements": status,
	})
}

// GetLessonProgress returns the caller's requirement breakdown for a lesson.
func (lc *LessonsController) GetLessonProgress(c *fiber.Ctx) error {
	identity, err := callerIdentity(c, lc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	lessonID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid lesson ID")
	}

	progress, status, err := lc.Requirements.GetProgress(identity.UserID, lessonID)
	if err != nil {
		return serviceError(c, lc.Logger, err)
	}

	return c.JSON(fiber.Map{
		"progress":     progress,
		"requirements": status,
	})
}

// CompleteLesson godoc
// @Summary Complete a lesson
// @Description Marks the lesson done if every enabled requirement is met;
// completing an already completed lesson is a no-op
// @Tags lessons
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /lessons/{id}/complete [post]
func (lc *LessonsController) CompleteLesson(c *fiber.Ctx) error {
	identity, err := callerIdentity(c, lc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	lessonID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid lesson ID")
	}

	status, err := lc.Requirements.Complete(identity.UserID, lessonID)
	if err != nil {
		return serviceError(c, lc.Logger, err)
	}

	return c.JSON(fiber.Map{
		"message":      "Lesson completed",
		"requirements": status,
	})
}
