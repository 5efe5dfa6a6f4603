package logging

import (
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/models"
	"gorm.io/gorm"
)

// StartCleanup runs a daily goroutine that prunes system_logs older than retention.
func StartCleanup(db *gorm.DB, retention time.Duration, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				Prune(db, time.Now().UTC().Add(-retention))
			case <-done:
				return
			}
		}
	}()
}

// Prune deletes system_logs written before cutoff and returns how many were removed.
func Prune(db *gorm.DB, cutoff time.Time) int64 {
	result := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		slog.Error("log cleanup failed", "error", result.Error)
		return 0
	}
	if result.RowsAffected > 0 {
		slog.Info("log cleanup completed", "deleted", result.RowsAffected)
	}
	return result.RowsAffected
}
