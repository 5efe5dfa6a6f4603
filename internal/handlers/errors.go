package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/domain"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/dto"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/policy"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var statusByCode = map[string]int{
	domain.ErrCodeValidation:    fiber.StatusBadRequest,
	domain.ErrCodeAuthorization: fiber.StatusForbidden,
	domain.ErrCodeNotFound:      fiber.StatusNotFound,
	domain.ErrCodeConflict:      fiber.StatusConflict,
}

// respondError writes err as an ErrorResponse. Domain errors keep their message;
// anything else is logged and reported as a bare 500.
func respondError(c *fiber.Ctx, err error) error {
	var de *domain.DomainError
	if errors.As(err, &de) {
		if status, ok := statusByCode[de.Code]; ok {
			return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: de.Message})
		}
	} else {
		slog.Error("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", requestID(c),
			"error", err.Error(),
		)
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
}

// currentActor returns the actor resolved by middleware.ResolveActor.
func currentActor(c *fiber.Ctx) (policy.Actor, bool) {
	actor, err := session.GetActor(c)
	return actor, err == nil
}

func paramID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
