package middleware

import (
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/domain"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/dto"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/session"
	"github.com/gofiber/fiber/v2"
)

// AdminRequired rejects actors without the admin role. It must run after ResolveActor.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := session.GetActor(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		if !actor.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: domain.AuthorizationMessage,
			})
		}
		return c.Next()
	}
}
