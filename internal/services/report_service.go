package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/config"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/dto"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/models"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/policy"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/session"
	"gorm.io/gorm"
)

// ReportService serves the admin dashboard aggregates.
type ReportService struct {
	db      *gorm.DB
	loc     *time.Location
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewReportService(db *gorm.DB, cfg *config.Config, m *metrics.Metrics) *ReportService {
	return &ReportService{
		db:      db,
		loc:     cfg.Location(),
		metrics: m,
		now:     utcNow,
	}
}

func (s *ReportService) authorize(actor policy.Actor) error {
	return enforce(s.metrics, policy.ViewReports, actor, policy.CanViewReports(actor))
}

// DashboardStats reports totals across all leads. Average response time is the mean
// number of hours from creation to last contact over contacted leads.
func (s *ReportService) DashboardStats(actor policy.Actor) (*dto.DashboardStats, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}

	var total, converted int64
	if err := s.db.Model(&models.Lead{}).Count(&total).Error; err != nil {
		return nil, internal("dashboard_stats", err)
	}
	if err := s.db.Model(&models.Lead{}).
		Where("lead_status = ?", models.StatusAdmissionTaken).
		Count(&converted).Error; err != nil {
		return nil, internal("dashboard_stats", err)
	}

	var contacted []models.Lead
	if err := s.db.Select("created_at", "last_contacted_date").
		Where("last_contacted_date IS NOT NULL").
		Find(&contacted).Error; err != nil {
		return nil, internal("dashboard_stats", err)
	}
	var sum time.Duration
	for _, l := range contacted {
		sum += l.LastContactedDate.Sub(l.CreatedAt)
	}
	avgHours := 0
	if len(contacted) > 0 {
		avgHours = int(math.Round(sum.Hours() / float64(len(contacted))))
	}

	return &dto.DashboardStats{
		TotalLeads:      total,
		Conversions:     converted,
		ConversionRate:  fmt.Sprintf("%d%%", wholePercent(converted, total)),
		AvgResponseTime: fmt.Sprintf("%dh", avgHours),
	}, nil
}

type assigneeCount struct {
	AssignedTo  string
	Total       int64
	Conversions int64
}

// TeamPerformance lists every user, oldest account first, with their lead counts.
// Rates carry one decimal place.
func (s *ReportService) TeamPerformance(actor policy.Actor) ([]dto.TeamMemberPerformance, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}

	var users []models.User
	if err := s.db.Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, internal("team_performance", err)
	}
	counts, err := countByAssignee(s.db)
	if err != nil {
		return nil, internal("team_performance", err)
	}

	out := make([]dto.TeamMemberPerformance, 0, len(users))
	for _, u := range users {
		c := counts[u.ID.String()]
		out = append(out, dto.TeamMemberPerformance{
			ID:             u.ID.String(),
			Name:           u.Name,
			Email:          u.Email,
			Leads:          c.Total,
			Conversions:    c.Conversions,
			ConversionRate: oneDecimalPercent(c.Conversions, c.Total),
		})
	}
	return out, nil
}

// countByAssignee groups assigned leads by owner in one query.
func countByAssignee(db *gorm.DB) (map[string]assigneeCount, error) {
	var rows []assigneeCount
	err := db.Model(&models.Lead{}).
		Select("assigned_to, COUNT(*) AS total, SUM(CASE WHEN lead_status = ? THEN 1 ELSE 0 END) AS conversions", models.StatusAdmissionTaken).
		Where("assigned_to IS NOT NULL").
		Group("assigned_to").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]assigneeCount, len(rows))
	for _, r := range rows {
		out[r.AssignedTo] = r
	}
	return out, nil
}

// SourceDistribution counts leads per source, largest first.
func (s *ReportService) SourceDistribution(actor policy.Actor) ([]dto.SourceCount, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}

	out := make([]dto.SourceCount, 0)
	if err := s.db.Model(&models.Lead{}).
		Select("source, COUNT(*) AS count").
		Group("source").
		Order("count DESC, source ASC").
		Scan(&out).Error; err != nil {
		return nil, internal("source_distribution", err)
	}
	return out, nil
}

type sourceConversionRow struct {
	Source    string
	Total     int64
	Converted int64
}

// ConversionBySource reports per-source totals and conversions, largest source first.
func (s *ReportService) ConversionBySource(actor policy.Actor) ([]dto.SourceConversion, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}

	var rows []sourceConversionRow
	if err := s.db.Model(&models.Lead{}).
		Select("source, COUNT(*) AS total, SUM(CASE WHEN lead_status = ? THEN 1 ELSE 0 END) AS converted", models.StatusAdmissionTaken).
		Group("source").
		Order("total DESC, source ASC").
		Scan(&rows).Error; err != nil {
		return nil, internal("conversion_by_source", err)
	}

	out := make([]dto.SourceConversion, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.SourceConversion{
			Source:    r.Source,
			Total:     r.Total,
			Converted: r.Converted,
			Rate:      oneDecimalPercent(r.Converted, r.Total),
		})
	}
	return out, nil
}

// MonthlyTrends buckets leads created since the first day of the month six months
// ago by "YYYY-MM", in ascending month order.
func (s *ReportService) MonthlyTrends(actor policy.Actor) ([]dto.MonthlyTrend, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	since := time.Date(now.Year(), now.Month()-6, 1, 0, 0, 0, 0, s.loc)

	var leads []models.Lead
	if err := s.db.Select("created_at", "lead_status").
		Where("created_at >= ?", since.UTC()).
		Find(&leads).Error; err != nil {
		return nil, internal("monthly_trends", err)
	}

	buckets := make(map[string]*dto.MonthlyTrend)
	for _, l := range leads {
		key := l.CreatedAt.In(s.loc).Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &dto.MonthlyTrend{Month: key}
			buckets[key] = b
		}
		b.Leads++
		if l.LeadStatus == models.StatusAdmissionTaken {
			b.Conversions++
		}
	}

	out := make([]dto.MonthlyTrend, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

// UnassignedLeads lists leads without an owner, newest first.
func (s *ReportService) UnassignedLeads(actor policy.Actor) ([]models.Lead, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}

	leads := make([]models.Lead, 0)
	if err := s.db.Scopes(session.Unassigned()).
		Order("leads.created_at DESC").
		Find(&leads).Error; err != nil {
		return nil, internal("unassigned_leads", err)
	}
	return leads, nil
}
