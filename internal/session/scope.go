package session

import (
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/policy"
	"gorm.io/gorm"
)

// VisibleTo returns a GORM scope limiting leads to those the actor may see.
// Admins see every lead; everyone else sees only leads assigned to them.
func VisibleTo(actor policy.Actor) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if actor.IsAdmin() {
			return db
		}
		return db.Where("leads.assigned_to = ?", actor.ID)
	}
}

// Unassigned returns a GORM scope for leads with no owner.
func Unassigned() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("leads.assigned_to IS NULL")
	}
}
