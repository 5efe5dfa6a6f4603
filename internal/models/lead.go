package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LeadSource string

const (
	SourceWebsite       LeadSource = "Website"
	SourceReferral      LeadSource = "Referral"
	SourceSocialMedia   LeadSource = "Social Media"
	SourceEvent         LeadSource = "Event"
	SourceEmailCampaign LeadSource = "Email Campaign"
	SourceOther         LeadSource = "Other"
)

var LeadSources = []LeadSource{
	SourceWebsite, SourceReferral, SourceSocialMedia, SourceEvent, SourceEmailCampaign, SourceOther,
}

func (s LeadSource) Valid() bool {
	for _, v := range LeadSources {
		if s == v {
			return true
		}
	}
	return false
}

type CallStatus string

const (
	CallPending      CallStatus = "Pending"
	CallConnected    CallStatus = "Connected"
	CallNotConnected CallStatus = "Not Connected"
)

func (s CallStatus) Valid() bool {
	return s == CallPending || s == CallConnected || s == CallNotConnected
}

type LeadStatus string

const (
	StatusNew            LeadStatus = "New"
	StatusInterested     LeadStatus = "Interested"
	StatusNotInterested  LeadStatus = "Not Interested"
	StatusAdmissionTaken LeadStatus = "Admission Taken"
)

func (s LeadStatus) Valid() bool {
	switch s {
	case StatusNew, StatusInterested, StatusNotInterested, StatusAdmissionTaken:
		return true
	}
	return false
}

// Lead is a prospective contact worked by a sales agent. AssignedTo is a non-owning
// reference: deleting the user reassigns the lead, it never cascades.
// Timestamps are set explicitly by the services so every mutation shares one clock.
type Lead struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name              string     `gorm:"not null;size:255" json:"name"`
	Phone             string     `gorm:"not null;size:50" json:"phone"`
	Email             string     `gorm:"not null;size:255;index" json:"email"`
	Source            LeadSource `gorm:"not null;size:50;index" json:"source"`
	CallStatus        CallStatus `gorm:"not null;size:20;default:'Pending';index" json:"callStatus"`
	LeadStatus        LeadStatus `gorm:"not null;size:20;default:'New';index" json:"leadStatus"`
	FollowUpDate      *time.Time `gorm:"index" json:"followUpDate"`
	LastContactedDate *time.Time `json:"lastContactedDate"`
	Remarks           string     `gorm:"type:text" json:"remarks"`
	AssignedTo        *uuid.UUID `gorm:"type:uuid;index" json:"assignedTo"`
	CreatedAt         time.Time  `gorm:"autoCreateTime:false;index" json:"createdAt"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime:false" json:"updatedAt"`

	// SearchText is name, phone and email lowercased in Go, so matching is
	// Unicode-aware on every driver. Maintained by BeforeSave.
	SearchText string `gorm:"type:text;not null;default:''" json:"-"`

	Assignee *User `gorm:"foreignKey:AssignedTo" json:"assignee,omitempty"`
}

// BuildSearchText returns the value stored in SearchText.
func (l *Lead) BuildSearchText() string {
	return strings.ToLower(l.Name + "\n" + l.Phone + "\n" + l.Email)
}

func (l *Lead) BeforeSave(tx *gorm.DB) error {
	// column-only updates run hooks on an empty model
	if l.Name == "" && l.Phone == "" && l.Email == "" {
		return nil
	}
	l.SearchText = l.BuildSearchText()
	return nil
}

func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
