// Package permissions holds the pure role-gating decision functions.
// Every check fails closed: a nil user, a user without a role, or an
// unknown role name grants nothing.
package permissions

import (
	"dealdesk/internal/models"
)

// RoleKind is the closed set of role names the system knows about.
type RoleKind string

const (
	RoleAdmin   RoleKind = "Admin"
	RoleAnalyst RoleKind = "Analyst"
	RolePartner RoleKind = "Partner"
)

// Kind returns the user's role kind, or "" for users with no role or
// a role outside the closed set.
func Kind(user *models.User) RoleKind {
	if user == nil || user.Role == nil {
		return ""
	}
	switch RoleKind(user.Role.Name) {
	case RoleAdmin, RoleAnalyst, RolePartner:
		return RoleKind(user.Role.Name)
	}
	return ""
}

// IsAdmin reports whether the user holds the Admin role.
func IsAdmin(user *models.User) bool {
	return Kind(user) == RoleAdmin
}

// IsAnalystOrAbove reports whether the user is an Admin or Analyst.
func IsAnalystOrAbove(user *models.User) bool {
	k := Kind(user)
	return k == RoleAdmin || k == RoleAnalyst
}

// IsPartnerOrAbove reports whether the user holds any of the three roles.
func IsPartnerOrAbove(user *models.User) bool {
	return Kind(user) != ""
}

// CanVote reports whether the user may cast votes. Analysts cannot.
func CanVote(user *models.User) bool {
	k := Kind(user)
	return k == RoleAdmin || k == RolePartner
}

// CanEditDeal reports whether the user may edit the given deal:
// admins edit any deal, analysts only their own.
func CanEditDeal(user *models.User, deal *models.Deal) bool {
	if user == nil || deal == nil {
		return false
	}
	if IsAdmin(user) {
		return true
	}
	return IsAnalystOrAbove(user) && deal.OwnerID == user.ID
}

// HasPermission reports whether the user's role carries the given
// permission tag.
func HasPermission(user *models.User, tag string) bool {
	if user == nil || user.Role == nil {
		return false
	}
	for _, p := range user.Role.Permissions {
		if p == tag {
			return true
		}
	}
	return false
}
