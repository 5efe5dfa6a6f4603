// Package session carries the authenticated actor from the HTTP layer into the services.
package session

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/policy"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const actorKey = "actor"

var ErrNoActor = errors.New("no authenticated actor in context")

// GetUserID extracts the user UUID from JWT claims in context.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}

	return uuid.Parse(sub)
}

func SetActor(c *fiber.Ctx, actor policy.Actor) {
	c.Locals(actorKey, actor)
}

// GetActor returns the actor resolved for this request by middleware.ResolveActor.
func GetActor(c *fiber.Ctx) (policy.Actor, error) {
	actor, ok := c.Locals(actorKey).(policy.Actor)
	if !ok {
		return policy.Actor{}, ErrNoActor
	}
	return actor, nil
}
