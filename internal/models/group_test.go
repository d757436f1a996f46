package models

import "testing"

func TestDefaultCapabilities(t *testing.T) {
	owner := DefaultCapabilities(RoleOwner)
	if !owner.CanManageProjects || !owner.CanManageWallets || !owner.CanManageMembers || !owner.CanPostTimeline {
		t.Errorf("owner should hold every capability, got %+v", owner)
	}

	admin := DefaultCapabilities(RoleAdmin)
	if !admin.CanManageProjects || !admin.CanManageMembers || !admin.CanPostTimeline {
		t.Errorf("admin missing expected capabilities, got %+v", admin)
	}
	if admin.CanManageWallets {
		t.Error("admin must not manage wallets by default")
	}

	member := DefaultCapabilities(RoleMember)
	if member != (Capabilities{}) {
		t.Errorf("plain member should hold no capabilities, got %+v", member)
	}
}

func TestMembershipIsActive(t *testing.T) {
	tests := []struct {
		status   string
		expected bool
	}{
		{MembershipActive, true},
		{MembershipPending, false},
		{MembershipLeft, false},
		{MembershipRemoved, false},
	}

	for _, tt := range tests {
		m := GroupMembership{Status: tt.status}
		if m.IsActive() != tt.expected {
			t.Errorf("IsActive() with status %q = %v, want %v", tt.status, m.IsActive(), tt.expected)
		}
	}
}
