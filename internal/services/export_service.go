package services

import (
	"fmt"
	"io"
	"time"

	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/dto"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/models"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/policy"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Leads"

var exportHeaders = []string{
	"ID", "Name", "Phone", "Email", "Source", "Call Status", "Lead Status",
	"Follow Up", "Last Contacted", "Assigned To", "Remarks", "Created At",
}

// ExportService writes lead listings as spreadsheets.
type ExportService struct {
	directory *DirectoryService
	metrics   *metrics.Metrics
}

func NewExportService(directory *DirectoryService, m *metrics.Metrics) *ExportService {
	return &ExportService{directory: directory, metrics: m}
}

// WriteLeads writes the leads matching filter as an .xlsx workbook to w. Admin only.
func (s *ExportService) WriteLeads(w io.Writer, filter dto.LeadFilter, actor policy.Actor) (int, error) {
	if err := enforce(s.metrics, policy.ViewReports, actor, policy.CanViewReports(actor)); err != nil {
		return 0, err
	}
	leads, err := s.directory.List(filter, actor)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return 0, internal("export_leads", fmt.Errorf("failed to rename sheet: %w", err))
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return 0, internal("export_leads", fmt.Errorf("failed to create style: %w", err))
	}

	header := make([]any, len(exportHeaders))
	for i, h := range exportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return 0, internal("export_leads", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(exportHeaders))
	if err := f.SetCellStyle(exportSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return 0, internal("export_leads", err)
	}

	for i, l := range leads {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := exportRow(l)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return 0, internal("export_leads", err)
		}
	}
	if err := f.SetColWidth(exportSheet, "A", lastCol, 18); err != nil {
		return 0, internal("export_leads", err)
	}

	if err := f.Write(w); err != nil {
		return 0, internal("export_leads", fmt.Errorf("failed to write workbook: %w", err))
	}
	s.metrics.RecordExportCreated()
	return len(leads), nil
}

func exportRow(l models.Lead) []any {
	assignee := ""
	if l.Assignee != nil {
		assignee = l.Assignee.Name
	}
	return []any{
		l.ID.String(),
		l.Name,
		l.Phone,
		l.Email,
		string(l.Source),
		string(l.CallStatus),
		string(l.LeadStatus),
		formatTime(l.FollowUpDate),
		formatTime(l.LastContactedDate),
		assignee,
		l.Remarks,
		l.CreatedAt.Format(time.RFC3339),
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
