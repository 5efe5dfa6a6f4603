package services

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/domain"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/models"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/policy"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func utcNow() time.Time {
	return time.Now().UTC()
}

// enforce turns a policy decision into an error, counting and logging denials.
// The reason is logged here and never returned to the caller.
func enforce(m *metrics.Metrics, op policy.Operation, actor policy.Actor, d policy.Decision) error {
	if d.Allowed {
		return nil
	}
	m.RecordDenied(string(op))
	slog.Warn("operation denied",
		"action", string(op),
		"user_id", actor.ID.String(),
		"reason", string(d.Reason),
	)
	return d.Err()
}

// internal logs an unexpected persistence failure and hides it behind an opaque error.
func internal(action string, err error, attrs ...any) error {
	args := append([]any{"action", action, "error", err}, attrs...)
	slog.Error("operation failed", args...)
	return domain.NewInternalError(err)
}

// findLead loads a lead without associations.
func findLead(db *gorm.DB, id uuid.UUID) (*models.Lead, error) {
	var lead models.Lead
	if err := db.First(&lead, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("lead")
		}
		return nil, internal("find_lead", err, "lead_id", id.String())
	}
	return &lead, nil
}

func findUser(db *gorm.DB, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("user")
		}
		return nil, internal("find_user", err, "user_id", id.String())
	}
	return &user, nil
}

// wholePercent is part/total as a rounded whole percentage, 0 when total is 0.
func wholePercent(part, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// oneDecimalPercent is part/total as a percentage with one decimal place, "0.0" when total is 0.
func oneDecimalPercent(part, total int64) string {
	if total == 0 {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", float64(part)/float64(total)*100)
}

// dayBounds returns [start of day, start of next day) for t in loc.
func dayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}
