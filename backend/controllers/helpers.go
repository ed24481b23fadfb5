package controllers

import (
	"errors"
	"log"
	"strconv"

	"lms/backend/config"
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

func validationErrors(err error) map[string]string {
	fields := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
	}
	return fields
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.Atoi(c.Params(name))
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

func callerIdentity(c *fiber.Ctx, cfg *config.Config) (utils.Identity, error) {
	if identity, ok := c.Locals("identity").(utils.Identity); ok {
		return identity, nil
	}
	return utils.ExtractIdentity(c, cfg)
}

// serviceError maps domain failures onto HTTP responses. Storage errors are
// logged in full and sanitized for the caller.
func serviceError(c *fiber.Ctx, logger *log.Logger, err error) error {
	var reqErr *services.RequirementError
	if errors.As(err, &reqErr) {
		return utils.CodedError(c, fiber.StatusBadRequest, reqErr.Code, reqErr.Error(), fiber.Map{
			"requirement": reqErr.Requirement,
			"required":    reqErr.Required,
			"current":     reqErr.Current,
		})
	}

	var domErr *services.Error
	if errors.As(err, &domErr) {
		switch domErr {
		case services.ErrTestNotFound, services.ErrAttemptNotFound,
			services.ErrLessonNotFound, services.ErrCourseNotFound:
			return utils.CodedError(c, fiber.StatusNotFound, domErr.Code, domErr.Message)
		case services.ErrNotEnrolled:
			return utils.CodedError(c, fiber.StatusForbidden, domErr.Code, domErr.Message)
		default:
			return utils.CodedError(c, fiber.StatusBadRequest, domErr.Code, domErr.Message)
		}
	}

	logger.Printf("%s %s: %v", c.Method(), c.Path(), err)
	return utils.InternalServerError(c, "Could not process request")
}
