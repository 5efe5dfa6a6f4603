// Package lifecycle holds the call-disposition state machine for a single lead.
// It is pure: callers load the lead, apply a disposition here, and persist the result.
package lifecycle

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/models"
	"github.com/google/uuid"
)

// Call status tags as sent by the dashboard.
const (
	TagConnected    = "connected"
	TagNotConnected = "not_connected"
)

// Lead progress tags as sent by the dashboard.
const (
	ProgressInterested     = "interested"
	ProgressNotInterested  = "not_interested"
	ProgressAdmissionTaken = "admission_taken"
)

var callStatusByTag = map[string]models.CallStatus{
	TagConnected: models.CallConnected,
}

var leadStatusByProgress = map[string]models.LeadStatus{
	ProgressInterested:     models.StatusInterested,
	ProgressNotInterested:  models.StatusNotInterested,
	ProgressAdmissionTaken: models.StatusAdmissionTaken,
}

// Disposition is the outcome of one call attempt.
type Disposition struct {
	CallStatus   string
	LeadProgress string
	FollowUpDate *time.Time
	Remarks      string
}

// ResolveCallStatus maps a call tag to the lead's call status. Anything other than
// "connected" counts as not connected.
func ResolveCallStatus(tag string) models.CallStatus {
	if s, ok := callStatusByTag[tag]; ok {
		return s
	}
	return models.CallNotConnected
}

// ResolveLeadProgress maps a progress tag to a lead status. ok is false for an absent
// or unrecognized tag, in which case the lead keeps its current status.
func ResolveLeadProgress(tag string) (status models.LeadStatus, ok bool) {
	status, ok = leadStatusByProgress[tag]
	return status, ok
}

// Apply records the disposition on lead and returns the history row to append.
// The lead and the returned row must be persisted in the same transaction.
func Apply(lead *models.Lead, d Disposition, agentID uuid.UUID, now time.Time) models.CallHistory {
	callStatus := ResolveCallStatus(d.CallStatus)

	var disposition *models.LeadStatus
	if status, ok := ResolveLeadProgress(d.LeadProgress); ok {
		lead.LeadStatus = status
		disposition = &status
	}

	lead.CallStatus = callStatus
	contacted := now
	lead.LastContactedDate = &contacted
	if d.FollowUpDate != nil {
		followUp := d.FollowUpDate.UTC()
		lead.FollowUpDate = &followUp
	}
	lead.Remarks = d.Remarks
	lead.UpdatedAt = now

	return models.CallHistory{
		ID:          uuid.New(),
		LeadID:      lead.ID,
		UserID:      agentID,
		Date:        now,
		Status:      callStatus,
		Disposition: disposition,
		Remarks:     d.Remarks,
	}
}
