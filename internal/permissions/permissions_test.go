package permissions

import (
	"testing"

	"dealdesk/internal/models"
)

func userWithRole(id uint, role string) *models.User {
	u := &models.User{ID: id, IsActive: true}
	if role != "" {
		u.Role = &models.Role{Name: role}
	}
	return u
}

func TestIsAdmin(t *testing.T) {
	if !IsAdmin(userWithRole(1, "Admin")) {
		t.Error("admin should be admin")
	}
	if IsAdmin(userWithRole(1, "Analyst")) {
		t.Error("analyst should not be admin")
	}
	if IsAdmin(userWithRole(1, "Partner")) {
		t.Error("partner should not be admin")
	}
	if IsAdmin(userWithRole(1, "")) {
		t.Error("role-less user should not be admin")
	}
	if IsAdmin(nil) {
		t.Error("nil user should not be admin")
	}
}

func TestIsAnalystOrAbove(t *testing.T) {
	if !IsAnalystOrAbove(userWithRole(1, "Admin")) {
		t.Error("admin should be analyst or above")
	}
	if !IsAnalystOrAbove(userWithRole(1, "Analyst")) {
		t.Error("analyst should be analyst or above")
	}
	if IsAnalystOrAbove(userWithRole(1, "Partner")) {
		t.Error("partner should not be analyst or above")
	}
	if IsAnalystOrAbove(userWithRole(1, "")) {
		t.Error("role-less user should not be analyst or above")
	}
}

func TestIsPartnerOrAbove(t *testing.T) {
	for _, role := range []string{"Admin", "Analyst", "Partner"} {
		if !IsPartnerOrAbove(userWithRole(1, role)) {
			t.Errorf("%s should be partner or above", role)
		}
	}
	if IsPartnerOrAbove(userWithRole(1, "")) {
		t.Error("role-less user should not be partner or above")
	}
	if IsPartnerOrAbove(userWithRole(1, "Intern")) {
		t.Error("unknown role should not be partner or above")
	}
}

func TestCanVote(t *testing.T) {
	if !CanVote(userWithRole(1, "Admin")) {
		t.Error("admin should be able to vote")
	}
	if !CanVote(userWithRole(1, "Partner")) {
		t.Error("partner should be able to vote")
	}
	if CanVote(userWithRole(1, "Analyst")) {
		t.Error("analyst should not be able to vote")
	}
	if CanVote(userWithRole(1, "")) {
		t.Error("role-less user should not be able to vote")
	}
}

func TestCanEditDeal(t *testing.T) {
	deal := &models.Deal{ID: 10, OwnerID: 2}

	if !CanEditDeal(userWithRole(1, "Admin"), deal) {
		t.Error("admin should edit any deal")
	}
	if !CanEditDeal(userWithRole(2, "Analyst"), deal) {
		t.Error("analyst should edit their own deal")
	}
	if CanEditDeal(userWithRole(3, "Analyst"), deal) {
		t.Error("analyst should not edit another user's deal")
	}
	if CanEditDeal(userWithRole(2, "Partner"), deal) {
		t.Error("partner should not edit even their own deal")
	}
	if CanEditDeal(nil, deal) {
		t.Error("nil user should not edit")
	}
	if CanEditDeal(userWithRole(1, "Admin"), nil) {
		t.Error("nil deal should not be editable")
	}
}

func TestHasPermission(t *testing.T) {
	u := userWithRole(1, "Analyst")
	u.Role.Permissions = []string{"view_deals", "create_deals", "edit_own_deal"}

	if !HasPermission(u, "create_deals") {
		t.Error("expected create_deals permission")
	}
	if HasPermission(u, "vote") {
		t.Error("unexpected vote permission")
	}
	if HasPermission(userWithRole(1, ""), "view_deals") {
		t.Error("role-less user should have no permissions")
	}
	if HasPermission(nil, "view_deals") {
		t.Error("nil user should have no permissions")
	}
}

func TestKindUnknownRole(t *testing.T) {
	if Kind(userWithRole(1, "Superuser")) != "" {
		t.Error("unknown role name should normalize to empty kind")
	}
}
