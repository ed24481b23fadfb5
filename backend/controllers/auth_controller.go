package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"lms/backend/config"
	"lms/backend/models"
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	maxLoginAttempts   = 5
	loginAttemptWindow = 15 * time.Minute
)

type AuthController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Redis  *redis.Client
	Logger *log.Logger
	Tasks  *services.TaskRunner
}

func NewAuthController(db *gorm.DB, cfg *config.Config, rdb *redis.Client, logger *log.Logger, tasks *services.TaskRunner) *AuthController {
	return &AuthController{DB: db, Cfg: cfg, Redis: rdb, Logger: logger, Tasks: tasks}
}

// Register godoc
// @Summary Register a new user
// @Description Creates a new learner account
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /auth/register [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	type RegisterInput struct {
		Username  string `json:"username" validate:"required,min=3,max=64"`
		Email     string `json:"email" validate:"required,email"`
		Password  string `json:"password" validate:"required,min=8"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	var input RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(input); err != nil {
		return utils.ValidationError(c, validationErrors(err))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return utils.InternalServerError(c, "Could not hash password")
	}

	user := models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleStudent,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
	}
	if err := ac.DB.Create(&user).Error; err != nil {
		return utils.BadRequest(c, "Could not create user")
	}

	token, err := utils.GenerateJWTToken(user.ID, user.Role, ac.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"role":     user.Role,
		},
	})
}

// Login godoc
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 429 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	type LoginInput struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	var input LoginInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(input); err != nil {
		return utils.ValidationError(c, validationErrors(err))
	}

	if ac.loginBlocked(c.Context(), input.Username) {
		return utils.CodedError(c, fiber.StatusTooManyRequests, "TOO_MANY_ATTEMPTS",
			"Too many failed login attempts, try again later")
	}

	var user models.User
	if err := ac.DB.Where("username = ?", input.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ac.recordFailedLogin(c.Context(), input.Username)
			return utils.Unauthorized(c, "Invalid credentials")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		ac.recordFailedLogin(c.Context(), input.Username)
		return utils.Unauthorized(c, "Invalid credentials")
	}

	ac.clearFailedLogins(c.Context(), input.Username)

	token, err := utils.GenerateJWTToken(user.ID, user.Role, ac.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}

	userID := user.ID
	ac.Tasks.Go("log-login", func() error {
		return ac.DB.Create(&models.LoginHistory{UserID: userID, LoginTime: time.Now()}).Error
	})

	return c.JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"role":     user.Role,
		},
	})
}

func loginAttemptsKey(username string) string {
	return fmt.Sprintf("login_attempts:%s", username)
}

// The counter lives in Redis with a TTL so the limit holds across all
// service instances and resets itself after the window.
func (ac *AuthController) loginBlocked(ctx context.Context, username string) bool {
	if ac.Redis == nil {
		return false
	}
	count, err := ac.Redis.Get(ctx, loginAttemptsKey(username)).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		ac.Logger.Printf("login limiter read failed: %v", err)
		return false
	}
	return count >= maxLoginAttempts
}

func (ac *AuthController) recordFailedLogin(ctx context.Context, username string) {
	if ac.Redis == nil {
		return
	}
	key := loginAttemptsKey(username)
	count, err := ac.Redis.Incr(ctx, key).Result()
	if err != nil {
		ac.Logger.Printf("login limiter incr failed: %v", err)
		return
	}
	if count == 1 {
		ac.Redis.Expire(ctx, key, loginAttemptWindow)
	}
}

func (ac *AuthController) clearFailedLogins(ctx context.Context, username string) {
	if ac.Redis == nil {
		return
	}
	if err := ac.Redis.Del(ctx, loginAttemptsKey(username)).Err(); err != nil {
		ac.Logger.Printf("login limiter clear failed: %v", err)
	}
}
