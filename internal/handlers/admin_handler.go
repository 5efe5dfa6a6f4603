package handlers

import (
	"bytes"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/services"
	"github.com/gofiber/fiber/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler serves the reporting dashboard. Every endpoint is admin only.
type AdminHandler struct {
	reports *services.ReportService
	export  *services.ExportService
}

func NewAdminHandler(reports *services.ReportService, export *services.ExportService) *AdminHandler {
	return &AdminHandler{reports: reports, export: export}
}

func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}
	stats, err := h.reports.DashboardStats(actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

func (h *AdminHandler) TeamPerformance(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}
	team, err := h.reports.TeamPerformance(actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(team)
}

func (h *AdminHandler) UnassignedLeads(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}
	leads, err := h.reports.UnassignedLeads(actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(leads)
}

func (h *AdminHandler) LeadSources(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}
	sources, err := h.reports.SourceDistribution(actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sources)
}

func (h *AdminHandler) ConversionBySource(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}
	rows, err := h.reports.ConversionBySource(actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rows)
}

func (h *AdminHandler) MonthlyTrends(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}
	trends, err := h.reports.MonthlyTrends(actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(trends)
}

// ExportLeads streams the filtered lead list as an .xlsx attachment.
func (h *AdminHandler) ExportLeads(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return unauthorized(c)
	}
	filter, err := parseLeadFilter(c)
	if err != nil {
		return badRequest(c, "Invalid assignedTo")
	}

	var buf bytes.Buffer
	if _, err := h.export.WriteLeads(&buf, filter, actor); err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="leads-%s.xlsx"`, c.Context().Time().UTC().Format("20060102")))
	return c.Send(buf.Bytes())
}
