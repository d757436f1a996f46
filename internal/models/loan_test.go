package models

import "testing"

func TestIsValidLoanTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		// Happy path
		{LoanStatusRequested, LoanStatusApproved, true},
		{LoanStatusApproved, LoanStatusFunded, true},
		{LoanStatusFunded, LoanStatusRepaying, true},
		{LoanStatusRepaying, LoanStatusRepaid, true},

		// Failure paths
		{LoanStatusRequested, LoanStatusRejected, true},
		{LoanStatusRequested, LoanStatusCancelled, true},
		{LoanStatusApproved, LoanStatusCancelled, true},
		{LoanStatusFunded, LoanStatusDefaulted, true},
		{LoanStatusRepaying, LoanStatusDefaulted, true},

		// Invalid transitions
		{LoanStatusRequested, LoanStatusFunded, false},
		{LoanStatusRepaid, LoanStatusRepaying, false},
		{LoanStatusRejected, LoanStatusApproved, false},
		{LoanStatusDefaulted, LoanStatusRepaid, false},
		{LoanStatusFunded, LoanStatusCancelled, false},
		{LoanStatusCancelled, LoanStatusRequested, false},
		{"nonexistent", LoanStatusApproved, false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidLoanTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidLoanTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestTerminalLoanStatusesHaveNoTransitions(t *testing.T) {
	terminal := []string{LoanStatusRepaid, LoanStatusDefaulted, LoanStatusRejected, LoanStatusCancelled}
	for _, status := range terminal {
		transitions := ValidLoanTransitions[status]
		if len(transitions) != 0 {
			t.Errorf("terminal status %q should have no transitions, got %v", status, transitions)
		}
	}
}
