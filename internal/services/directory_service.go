package services

import (
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/config"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/domain"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/dto"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/models"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/policy"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/session"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DirectoryService answers read-side lead queries and performs bulk reassignment.
// Every call reads the store; nothing is cached.
type DirectoryService struct {
	db             *gorm.DB
	loc            *time.Location
	strictAssignee bool
	metrics        *metrics.Metrics
	now            func() time.Time
}

func NewDirectoryService(db *gorm.DB, cfg *config.Config, m *metrics.Metrics) *DirectoryService {
	return &DirectoryService{
		db:             db,
		loc:            cfg.Location(),
		strictAssignee: cfg.StrictAssigneeFilter,
		metrics:        m,
		now:            utcNow,
	}
}

// List returns leads matching filter, newest first. Without an assignedTo filter
// non-admins only see their own leads. An explicit assignedTo is honored for any
// role unless the strict assignee filter is configured.
func (s *DirectoryService) List(filter dto.LeadFilter, actor policy.Actor) ([]models.Lead, error) {
	q, err := s.filtered(filter, actor)
	if err != nil {
		return nil, err
	}

	leads := make([]models.Lead, 0)
	if err := q.Preload("Assignee").Order("leads.created_at DESC").Find(&leads).Error; err != nil {
		return nil, internal("list_leads", err, "user_id", actor.ID.String())
	}
	return leads, nil
}

func (s *DirectoryService) filtered(filter dto.LeadFilter, actor policy.Actor) (*gorm.DB, error) {
	q := s.db.Model(&models.Lead{})

	if filter.AssignedTo != nil {
		assignee := *filter.AssignedTo
		if s.strictAssignee && !actor.IsAdmin() {
			assignee = actor.ID
		}
		q = q.Where("leads.assigned_to = ?", assignee)
	} else {
		q = q.Scopes(session.VisibleTo(actor))
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		q = q.Where(`leads.search_text LIKE ? ESCAPE '\'`, pattern)
	}
	if filter.CallStatus != "" {
		q = q.Where("leads.call_status = ?", filter.CallStatus)
	}
	if filter.LeadStatus != "" {
		q = q.Where("leads.lead_status = ?", filter.LeadStatus)
	}
	if filter.FollowUpDate != "" {
		day, err := time.ParseInLocation("2006-01-02", filter.FollowUpDate, s.loc)
		if err != nil {
			return nil, domain.NewValidationError("followUpDate must be formatted as YYYY-MM-DD")
		}
		start, end := dayBounds(day, s.loc)
		q = q.Where("leads.follow_up_date >= ? AND leads.follow_up_date < ?", start, end)
	}
	return q, nil
}

// TodaysFollowUps returns the actor's leads due for follow-up today, earliest first.
func (s *DirectoryService) TodaysFollowUps(actor policy.Actor) ([]models.Lead, error) {
	start, end := dayBounds(s.now(), s.loc)

	leads := make([]models.Lead, 0)
	if err := s.db.Scopes(session.VisibleTo(actor)).
		Preload("Assignee").
		Where("leads.follow_up_date >= ? AND leads.follow_up_date < ?", start, end).
		Order("leads.follow_up_date ASC").
		Find(&leads).Error; err != nil {
		return nil, internal("todays_follow_ups", err, "user_id", actor.ID.String())
	}
	return leads, nil
}

// Stats counts the actor's visible leads. The conversion rate is a whole percent.
func (s *DirectoryService) Stats(actor policy.Actor) (*dto.LeadStatsResponse, error) {
	start, end := dayBounds(s.now(), s.loc)
	scoped := func() *gorm.DB {
		return s.db.Model(&models.Lead{}).Scopes(session.VisibleTo(actor))
	}

	var stats dto.LeadStatsResponse
	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&stats.TotalLeads, scoped()},
		{&stats.TodayFollowUps, scoped().Where("leads.follow_up_date >= ? AND leads.follow_up_date < ?", start, end)},
		{&stats.ConnectedCalls, scoped().Where("leads.call_status = ?", models.CallConnected)},
		{&stats.ConvertedLeads, scoped().Where("leads.lead_status = ?", models.StatusAdmissionTaken)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, internal("lead_stats", err, "user_id", actor.ID.String())
		}
	}

	stats.ConversionRate = wholePercent(stats.ConvertedLeads, stats.TotalLeads)
	return &stats, nil
}

// AssignBulk points every existing lead in leadIDs at userID. Unknown lead ids are
// skipped. It returns the number of leads updated.
func (s *DirectoryService) AssignBulk(userID uuid.UUID, leadIDs []uuid.UUID, actor policy.Actor) (int64, error) {
	if err := enforce(s.metrics, policy.AssignLeadsBulk, actor, policy.CanAssignLeadsBulk(actor)); err != nil {
		return 0, err
	}
	if _, err := findUser(s.db, userID); err != nil {
		return 0, err
	}
	if len(leadIDs) == 0 {
		return 0, nil
	}

	result := s.db.Model(&models.Lead{}).
		Where("id IN ?", leadIDs).
		Updates(map[string]any{
			"assigned_to": userID,
			"updated_at":  s.now(),
		})
	if result.Error != nil {
		return 0, internal("assign_leads", result.Error, "user_id", actor.ID.String())
	}

	s.metrics.RecordLeadsAssigned(result.RowsAffected)
	return result.RowsAffected, nil
}

// escapeLike makes s match literally inside a LIKE pattern using '\' as the escape.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
