package dto

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/models"
	"github.com/google/uuid"
)

type CreateLeadRequest struct {
	Name       string     `json:"name" validate:"required,max=255"`
	Phone      string     `json:"phone" validate:"required,max=50"`
	Email      string     `json:"email" validate:"required,email,max=255"`
	Source     string     `json:"source" validate:"required,lead_source"`
	AssignedTo *uuid.UUID `json:"assignedTo"`
}

// UpdateLeadRequest is a partial update; nil fields are left as they are.
// FollowUpDate and AssignedTo are nullable, so an explicit null clears them.
type UpdateLeadRequest struct {
	Name         *string             `json:"name" validate:"omitempty,min=1,max=255"`
	Phone        *string             `json:"phone" validate:"omitempty,min=1,max=50"`
	Email        *string             `json:"email" validate:"omitempty,email,max=255"`
	Source       *string             `json:"source" validate:"omitempty,lead_source"`
	CallStatus   *string             `json:"callStatus" validate:"omitempty,call_status"`
	LeadStatus   *string             `json:"leadStatus" validate:"omitempty,lead_status"`
	FollowUpDate Optional[time.Time] `json:"followUpDate"`
	Remarks      *string             `json:"remarks"`
	AssignedTo   Optional[uuid.UUID] `json:"assignedTo"`
}

type RecordCallRequest struct {
	CallStatus   string     `json:"callStatus"`
	LeadProgress string     `json:"leadProgress"`
	FollowUpDate *time.Time `json:"followUpDate"`
	Remarks      string     `json:"remarks"`
}

// LeadFilter holds the optional list filters. Zero values mean "not filtered".
type LeadFilter struct {
	Search       string
	CallStatus   string
	LeadStatus   string
	FollowUpDate string // YYYY-MM-DD
	AssignedTo   *uuid.UUID
}

type RecordCallResponse struct {
	Lead        models.Lead        `json:"lead"`
	CallHistory models.CallHistory `json:"callHistory"`
}

type LeadDetailResponse struct {
	Lead        models.Lead          `json:"lead"`
	CallHistory []models.CallHistory `json:"callHistory"`
}

type LeadStatsResponse struct {
	TotalLeads     int64 `json:"totalLeads"`
	TodayFollowUps int64 `json:"todayFollowUps"`
	ConnectedCalls int64 `json:"connectedCalls"`
	ConvertedLeads int64 `json:"convertedLeads"`
	ConversionRate int   `json:"conversionRate"`
}
