package controllers

import (
	"log"

	"lms/backend/config"
	"lms/backend/models"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type OverviewController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Logger *log.Logger
}

func NewOverviewController(db *gorm.DB, cfg *config.Config, logger *log.Logger) *OverviewController {
	return &OverviewController{DB: db, Cfg: cfg, Logger: logger}
}

// SearchCourses godoc
// @Summary Browse the course catalog
// @Description Published courses, filterable by topic, difficulty and title
// @Tags catalog
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /courses [get]
func (oc *OverviewController) SearchCourses(c *fiber.Ctx) error {
	query := oc.DB.Model(&models.Course{}).Where("is_published = ?", true)

	if topic := c.Query("topic"); topic != "" {
		query = query.Where("topic = ?", topic)
	}
	if difficulty := c.Query("difficulty"); difficulty != "" {
		query = query.Where("difficulty = ?", difficulty)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("title ILIKE ?", "%"+search+"%")
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := c.QueryInt("per_page", 20)
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	var courses []models.Course
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&courses).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	return c.JSON(fiber.Map{
		"courses":  courses,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

// GetTopics lists distinct topics across published courses.
func (oc *OverviewController) GetTopics(c *fiber.Ctx) error {
	var topics []string
	err := oc.DB.Model(&models.Course{}).
		Where("is_published = ? AND topic <> ''", true).
		Distinct("topic").
		Order("topic ASC").
		Pluck("topic", &topics).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	return c.JSON(fiber.Map{"topics": topics})
}
