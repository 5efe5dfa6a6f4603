package handlers

import (
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/dto"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type LeadHandler struct {
	leads     *services.LeadService
	directory *services.DirectoryService
}

func NewLeadHandler(leads *services.LeadService, directory *services.DirectoryService) *LeadHandler {
	return &LeadHandler{leads: leads, directory: directory}
}

// parseLeadFilter reads the list filters from the query string.
func parseLeadFilter(c *fiber.Ctx) (dto.LeadFilter, error) {
	filter := dto.LeadFilter{
		Search:       c.Query("search"),
		CallStatus:   c.Query("callStatus"),
		LeadStatus:   c.Query("leadStatus"),
		FollowUpDate: c.Query("followUpDate"),
	}
	if raw := c.Query("assignedTo"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, err
		}
		filter.AssignedTo = &id
	}
	return filter, nil
}

func (h *LeadHandler) List(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}
	filter, err := parseLeadFilter(c)
	if err != nil {
		return badRequest(c, "Invalid assignedTo")
	}

	leads, err := h.directory.List(filter, actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(leads)
}

func (h *LeadHandler) TodaysFollowUps(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	leads, err := h.directory.TodaysFollowUps(actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(leads)
}

func (h *LeadHandler) Stats(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}

	stats, err := h.directory.Stats(actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

func (h *LeadHandler) Get(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "Invalid lead ID")
	}

	detail, err := h.leads.Get(id, actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

func (h *LeadHandler) Create(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}
	var req dto.CreateLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	lead, err := h.leads.Create(req, actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(lead)
}

func (h *LeadHandler) Update(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "Invalid lead ID")
	}
	var req dto.UpdateLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	lead, err := h.leads.Update(id, req, actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(lead)
}

func (h *LeadHandler) RecordCall(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "Invalid lead ID")
	}
	var req dto.RecordCallRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.leads.RecordCall(id, req, actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (h *LeadHandler) Delete(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "Invalid lead ID")
	}

	if err := h.leads.Delete(id, actor); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Lead deleted successfully"})
}
