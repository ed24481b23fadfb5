package controllers

import (
	"errors"
	"log"

	"lms/backend/config"
	"lms/backend/models"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Logger *log.Logger
}

func NewUserController(db *gorm.DB, cfg *config.Config, logger *log.Logger) *UserController {
	return &UserController{DB: db, Cfg: cfg, Logger: logger}
}

// GetProfile godoc
// @Summary Get the caller's profile
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /users/me [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	identity, err := callerIdentity(c, uc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var user models.User
	if err := uc.DB.First(&user, identity.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	return c.JSON(fiber.Map{"user": user})
}

// UpdateProfile updates the caller's name, department and optionally password.
// Role changes are not accepted here.
func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	identity, err := callerIdentity(c, uc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	type UpdateInput struct {
		FirstName  *string `json:"first_name"`
		LastName   *string `json:"last_name"`
		Department *string `json:"department"`
		Password   *string `json:"password" validate:"omitempty,min=8"`
	}

	var input UpdateInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(input); err != nil {
		return utils.ValidationError(c, validationErrors(err))
	}

	var user models.User
	if err := uc.DB.First(&user, identity.UserID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Department != nil {
		user.Department = *input.Department
	}
	if input.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return utils.InternalServerError(c, "Could not hash password")
		}
		user.PasswordHash = string(hash)
	}

	if err := uc.DB.Save(&user).Error; err != nil {
		return utils.InternalServerError(c, "Could not update user")
	}

	return c.JSON(fiber.Map{
		"message": "Profile updated",
		"user":    user,
	})
}

// SetRole assigns a role to a user. Admin only.
func (uc *UserController) SetRole(c *fiber.Ctx) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid user ID")
	}

	type RoleInput struct {
		Role string `json:"role" validate:"required"`
	}

	var input RoleInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(input); err != nil {
		return utils.ValidationError(c, validationErrors(err))
	}

	role := models.Role(input.Role)
	if !role.Valid() {
		return utils.BadRequest(c, "Invalid role")
	}

	res := uc.DB.Model(&models.User{}).Where("id = ?", userID).Update("role", role)
	if res.Error != nil {
		return utils.InternalServerError(c, "Could not update user")
	}
	if res.RowsAffected == 0 {
		return utils.NotFound(c, "User not found")
	}

	return c.JSON(fiber.Map{"message": "Role updated"})
}
