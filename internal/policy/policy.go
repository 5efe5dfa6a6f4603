// Package policy decides whether an actor may perform an operation on a lead or user.
//
// Every rule lives in one table keyed by Operation. Rules are pure: they look only at
// the actor and the facts about the resource passed in, and never touch storage.
package policy

import (
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/domain"
	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type Reason string

const (
	ReasonInsufficientRole Reason = "insufficient_role"
	ReasonNotOwner         Reason = "not_owner"
	ReasonLastAdmin        Reason = "last_admin"
)

type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision             { return Decision{Allowed: true} }
func deny(reason Reason) Decision { return Decision{Reason: reason} }

// Err converts a denial into the error callers see. Role and ownership denials are
// indistinguishable to the caller; removing the last admin is a conflict instead.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.Reason == ReasonLastAdmin {
		return domain.NewConflictError("cannot delete the last admin user")
	}
	return domain.NewAuthorizationError(string(d.Reason))
}

type Operation string

const (
	ViewLead        Operation = "view_lead"
	MutateLead      Operation = "mutate_lead"
	ReassignLead    Operation = "reassign_lead"
	DeleteLead      Operation = "delete_lead"
	ListAllUsers    Operation = "list_all_users"
	CreateUser      Operation = "create_user"
	ManageUserRole  Operation = "manage_user_role"
	AssignLeadsBulk Operation = "assign_leads_bulk"
	DeleteUser      Operation = "delete_user"
	ViewReports     Operation = "view_reports"
)

// Resource carries the facts a rule may need. Fields irrelevant to an operation are ignored.
type Resource struct {
	OwnerID    *uuid.UUID
	TargetRole Role
	AdminCount int64
}

type rule func(actor Actor, res Resource) Decision

var rules = map[Operation]rule{
	ViewLead:        adminOrOwner,
	MutateLead:      adminOrOwner,
	ReassignLead:    adminOnly,
	DeleteLead:      adminOnly,
	ListAllUsers:    adminOnly,
	CreateUser:      adminOnly,
	ManageUserRole:  adminOnly,
	AssignLeadsBulk: adminOnly,
	DeleteUser:      adminAndNotLastAdmin,
	ViewReports:     adminOnly,
}

func adminOnly(actor Actor, _ Resource) Decision {
	if actor.IsAdmin() {
		return allow()
	}
	return deny(ReasonInsufficientRole)
}

// Unassigned leads (nil owner) are visible to admins only.
func adminOrOwner(actor Actor, res Resource) Decision {
	if actor.IsAdmin() {
		return allow()
	}
	if res.OwnerID == nil {
		return deny(ReasonInsufficientRole)
	}
	if *res.OwnerID != actor.ID {
		return deny(ReasonNotOwner)
	}
	return allow()
}

func adminAndNotLastAdmin(actor Actor, res Resource) Decision {
	if !actor.IsAdmin() {
		return deny(ReasonInsufficientRole)
	}
	if res.TargetRole == RoleAdmin && res.AdminCount <= 1 {
		return deny(ReasonLastAdmin)
	}
	return allow()
}

// Check evaluates op against the rule table. Unknown operations are denied.
func Check(op Operation, actor Actor, res Resource) Decision {
	r, ok := rules[op]
	if !ok {
		return deny(ReasonInsufficientRole)
	}
	return r(actor, res)
}

func CanViewLead(actor Actor, ownerID *uuid.UUID) Decision {
	return Check(ViewLead, actor, Resource{OwnerID: ownerID})
}

func CanMutateLead(actor Actor, ownerID *uuid.UUID) Decision {
	return Check(MutateLead, actor, Resource{OwnerID: ownerID})
}

func CanReassignLead(actor Actor) Decision   { return Check(ReassignLead, actor, Resource{}) }
func CanDeleteLead(actor Actor) Decision     { return Check(DeleteLead, actor, Resource{}) }
func CanListAllUsers(actor Actor) Decision   { return Check(ListAllUsers, actor, Resource{}) }
func CanCreateUser(actor Actor) Decision     { return Check(CreateUser, actor, Resource{}) }
func CanManageUserRole(actor Actor) Decision { return Check(ManageUserRole, actor, Resource{}) }
func CanAssignLeadsBulk(actor Actor) Decision {
	return Check(AssignLeadsBulk, actor, Resource{})
}
func CanViewReports(actor Actor) Decision { return Check(ViewReports, actor, Resource{}) }

// CanDeleteUser needs the target's role and the current number of admins.
func CanDeleteUser(actor Actor, targetRole Role, adminCount int64) Decision {
	return Check(DeleteUser, actor, Resource{TargetRole: targetRole, AdminCount: adminCount})
}
