package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=admin user"`
}

type UpdateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=255"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin user"`
}

type AssignLeadsRequest struct {
	UserID  uuid.UUID   `json:"userId"`
	LeadIDs []uuid.UUID `json:"leadIds"`
}

type AssignLeadsResponse struct {
	Message string `json:"message"`
	Updated int64  `json:"updated"`
}

// UserWithStats is a user plus their lead counts.
type UserWithStats struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"createdAt"`
	Leads          int64     `json:"leads"`
	Conversions    int64     `json:"conversions"`
	ConversionRate int       `json:"conversionRate"`
}
