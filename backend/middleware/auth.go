package middleware

import (
	"lms/backend/config"
	"lms/backend/models"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware verifies the bearer token and stores the caller identity in
// request locals.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := utils.ExtractIdentity(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}
		c.Locals("identity", identity)
		return c.Next()
	}
}

// RequireCapability gates a route on the role capability table. Role checks
// happen here once, never inside handlers.
func RequireCapability(cap models.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := c.Locals("identity").(utils.Identity)
		if !ok {
			return utils.Unauthorized(c, "Unauthorized")
		}
		if !identity.Role.Can(cap) {
			return utils.Forbidden(c, "Insufficient permissions")
		}
		return c.Next()
	}
}

// CallerIdentity reads the identity placed by AuthMiddleware.
func CallerIdentity(c *fiber.Ctx) (utils.Identity, bool) {
	identity, ok := c.Locals("identity").(utils.Identity)
	return identity, ok
}
