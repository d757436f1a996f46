package models

import "testing"

func TestIsValidEventType(t *testing.T) {
	for _, typ := range []string{
		EventProjectCreated,
		EventProjectCompleted,
		EventProjectSupported,
		EventGroupCreated,
		EventMemberJoined,
		EventLoanFunded,
		EventLoanRepaid,
		EventEventScheduled,
		EventWalletConnected,
		EventStatusPosted,
	} {
		if !IsValidEventType(typ) {
			t.Errorf("IsValidEventType(%q) = false", typ)
		}
	}

	for _, typ := range []string{"", "project_deleted", "PROJECT_CREATED"} {
		if IsValidEventType(typ) {
			t.Errorf("IsValidEventType(%q) = true", typ)
		}
	}
}
