package services

import (
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/domain"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/dto"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/lifecycle"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/models"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/policy"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LeadService owns every write to a single lead.
type LeadService struct {
	db       *gorm.DB
	validate *validator.Validate
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewLeadService(db *gorm.DB, m *metrics.Metrics) *LeadService {
	return &LeadService{
		db:       db,
		validate: newValidator(),
		metrics:  m,
		now:      utcNow,
	}
}

// Create adds a lead owned by the actor, or by req.AssignedTo when an admin supplies one.
func (s *LeadService) Create(req dto.CreateLeadRequest, actor policy.Actor) (*models.Lead, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateStruct(s.validate, &req); err != nil {
		return nil, err
	}

	owner := actor.ID
	if req.AssignedTo != nil && policy.CanReassignLead(actor).Allowed {
		if err := s.requireAssignee(*req.AssignedTo); err != nil {
			return nil, err
		}
		owner = *req.AssignedTo
	}

	now := s.now()
	lead := models.Lead{
		ID:         uuid.New(),
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		Source:     models.LeadSource(req.Source),
		CallStatus: models.CallPending,
		LeadStatus: models.StatusNew,
		AssignedTo: &owner,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.db.Omit(clause.Associations).Create(&lead).Error; err != nil {
		return nil, internal("create_lead", err, "user_id", actor.ID.String())
	}

	s.metrics.RecordLeadCreated()
	return s.reload(lead.ID)
}

// Get returns a lead with its call history, newest call first.
func (s *LeadService) Get(id uuid.UUID, actor policy.Actor) (*dto.LeadDetailResponse, error) {
	lead, err := findLead(s.db, id)
	if err != nil {
		return nil, err
	}
	if err := enforce(s.metrics, policy.ViewLead, actor, policy.CanViewLead(actor, lead.AssignedTo)); err != nil {
		return nil, err
	}

	full, err := s.reload(id)
	if err != nil {
		return nil, err
	}

	history := make([]models.CallHistory, 0)
	if err := s.db.Preload("User").
		Where("lead_id = ?", id).
		Order("date DESC").
		Find(&history).Error; err != nil {
		return nil, internal("get_call_history", err, "lead_id", id.String())
	}

	return &dto.LeadDetailResponse{Lead: *full, CallHistory: history}, nil
}

// Update merges the supplied fields of req into the lead. An explicit null clears
// followUpDate or assignedTo. A reassignment from a non-admin is dropped without error.
func (s *LeadService) Update(id uuid.UUID, req dto.UpdateLeadRequest, actor policy.Actor) (*models.Lead, error) {
	lead, err := findLead(s.db, id)
	if err != nil {
		return nil, err
	}
	if err := enforce(s.metrics, policy.MutateLead, actor, policy.CanMutateLead(actor, lead.AssignedTo)); err != nil {
		return nil, err
	}
	if !policy.CanReassignLead(actor).Allowed {
		req.AssignedTo = dto.Optional[uuid.UUID]{}
	}

	trimPtr(req.Name)
	trimPtr(req.Phone)
	trimPtr(req.Email)
	if req.Email != nil {
		*req.Email = strings.ToLower(*req.Email)
	}
	required := []struct {
		field string
		value *string
	}{{"name", req.Name}, {"phone", req.Phone}, {"email", req.Email}}
	for _, r := range required {
		if r.value != nil && *r.value == "" {
			return nil, domain.NewValidationError(r.field + " cannot be empty")
		}
	}
	if err := validateStruct(s.validate, &req); err != nil {
		return nil, err
	}

	if req.Name != nil {
		lead.Name = *req.Name
	}
	if req.Phone != nil {
		lead.Phone = *req.Phone
	}
	if req.Email != nil {
		lead.Email = *req.Email
	}
	if req.Source != nil {
		lead.Source = models.LeadSource(*req.Source)
	}
	if req.CallStatus != nil {
		lead.CallStatus = models.CallStatus(*req.CallStatus)
	}
	if req.LeadStatus != nil {
		lead.LeadStatus = models.LeadStatus(*req.LeadStatus)
	}
	if req.FollowUpDate.Set {
		lead.FollowUpDate = nil
		if req.FollowUpDate.Value != nil {
			followUp := req.FollowUpDate.Value.UTC()
			lead.FollowUpDate = &followUp
		}
	}
	if req.Remarks != nil {
		lead.Remarks = *req.Remarks
	}
	if req.AssignedTo.Set {
		lead.AssignedTo = nil
		if req.AssignedTo.Value != nil {
			if err := s.requireAssignee(*req.AssignedTo.Value); err != nil {
				return nil, err
			}
			assignee := *req.AssignedTo.Value
			lead.AssignedTo = &assignee
		}
	}
	lead.UpdatedAt = s.now()

	if err := s.db.Omit(clause.Associations).Save(lead).Error; err != nil {
		return nil, internal("update_lead", err, "lead_id", id.String())
	}
	return s.reload(id)
}

// RecordCall applies a call disposition and appends its history row in one transaction.
func (s *LeadService) RecordCall(id uuid.UUID, req dto.RecordCallRequest, actor policy.Actor) (*dto.RecordCallResponse, error) {
	lead, err := findLead(s.db, id)
	if err != nil {
		return nil, err
	}
	if err := enforce(s.metrics, policy.MutateLead, actor, policy.CanMutateLead(actor, lead.AssignedTo)); err != nil {
		return nil, err
	}

	history := lifecycle.Apply(lead, lifecycle.Disposition{
		CallStatus:   req.CallStatus,
		LeadProgress: req.LeadProgress,
		FollowUpDate: req.FollowUpDate,
		Remarks:      req.Remarks,
	}, actor.ID, s.now())

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(lead).Error; err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(&history).Error
	})
	if err != nil {
		return nil, internal("record_call", err, "lead_id", id.String(), "user_id", actor.ID.String())
	}
	s.metrics.RecordCall(string(history.Status))

	full, err := s.reload(id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Preload("User").First(&history, "id = ?", history.ID).Error; err != nil {
		return nil, internal("record_call", err, "lead_id", id.String())
	}
	return &dto.RecordCallResponse{Lead: *full, CallHistory: history}, nil
}

// Delete removes a lead and its call history. Admin only.
func (s *LeadService) Delete(id uuid.UUID, actor policy.Actor) error {
	if err := enforce(s.metrics, policy.DeleteLead, actor, policy.CanDeleteLead(actor)); err != nil {
		return err
	}
	if _, err := findLead(s.db, id); err != nil {
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lead_id = ?", id).Delete(&models.CallHistory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Lead{}, "id = ?", id).Error
	})
	if err != nil {
		return internal("delete_lead", err, "lead_id", id.String())
	}
	return nil
}

func (s *LeadService) reload(id uuid.UUID) (*models.Lead, error) {
	var lead models.Lead
	if err := s.db.Preload("Assignee").First(&lead, "id = ?", id).Error; err != nil {
		return nil, internal("reload_lead", err, "lead_id", id.String())
	}
	return &lead, nil
}

func (s *LeadService) requireAssignee(userID uuid.UUID) error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return internal("check_assignee", err, "user_id", userID.String())
	}
	if count == 0 {
		return domain.NewValidationError("assigned user does not exist")
	}
	return nil
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
