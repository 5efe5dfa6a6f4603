package middleware

import (
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/domain"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/dto"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/policy"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ActorResolver loads the current role for an authenticated user id.
type ActorResolver interface {
	ActorFor(id uuid.UUID) (policy.Actor, error)
}

// ResolveActor runs after JWTProtected. It reads the user id from the token and
// re-reads the role from the store, so a demoted or deleted user loses access
// before their token expires.
func ResolveActor(resolver ActorResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := session.GetUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		actor, err := resolver.ActorFor(userID)
		if err != nil {
			if domain.IsNotFound(err) {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
					Error: true, Message: "Unauthorized: user no longer exists",
				})
			}
			slog.Error("failed to resolve actor", "user_id", userID.String(), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Internal server error",
			})
		}

		session.SetActor(c, actor)
		return c.Next()
	}
}
