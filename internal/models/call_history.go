package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CallHistory is an append-only record of one call attempt. Rows are only ever
// removed together with their lead.
type CallHistory struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	LeadID      uuid.UUID   `gorm:"type:uuid;not null;index" json:"leadId"`
	UserID      uuid.UUID   `gorm:"type:uuid;not null;index" json:"userId"`
	Date        time.Time   `gorm:"not null;index" json:"date"`
	Status      CallStatus  `gorm:"not null;size:20" json:"status"`
	Disposition *LeadStatus `gorm:"size:20" json:"disposition"`
	Remarks     string      `gorm:"type:text" json:"remarks"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (CallHistory) TableName() string {
	return "call_histories"
}

func (h *CallHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.Date.IsZero() {
		h.Date = time.Now().UTC()
	}
	return nil
}
