package models

import "testing"

func TestIsValidProjectTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		// Happy path
		{ProjectStatusDraft, ProjectStatusActive, true},
		{ProjectStatusActive, ProjectStatusPaused, true},
		{ProjectStatusActive, ProjectStatusCompleted, true},
		{ProjectStatusPaused, ProjectStatusActive, true},
		{ProjectStatusCompleted, ProjectStatusArchived, true},

		// Archival paths
		{ProjectStatusDraft, ProjectStatusArchived, true},
		{ProjectStatusActive, ProjectStatusArchived, true},
		{ProjectStatusPaused, ProjectStatusArchived, true},

		// Invalid transitions
		{ProjectStatusDraft, ProjectStatusCompleted, false},
		{ProjectStatusDraft, ProjectStatusPaused, false},
		{ProjectStatusCompleted, ProjectStatusActive, false},
		{ProjectStatusArchived, ProjectStatusActive, false},
		{ProjectStatusArchived, ProjectStatusDraft, false},
		{ProjectStatusPaused, ProjectStatusCompleted, false},
		{"nonexistent", ProjectStatusActive, false},
		{ProjectStatusDraft, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidProjectTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidProjectTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestAllProjectStatusesHaveTransitionEntry(t *testing.T) {
	allStatuses := []string{
		ProjectStatusDraft, ProjectStatusActive, ProjectStatusPaused,
		ProjectStatusCompleted, ProjectStatusArchived,
	}

	for _, status := range allStatuses {
		if _, ok := ValidProjectTransitions[status]; !ok {
			t.Errorf("status %q missing from ValidProjectTransitions map", status)
		}
	}
}

func TestArchivedIsTerminal(t *testing.T) {
	if transitions := ValidProjectTransitions[ProjectStatusArchived]; len(transitions) != 0 {
		t.Errorf("archived should have no transitions, got %v", transitions)
	}
}

func TestIsValidVisibility(t *testing.T) {
	for _, v := range []string{VisibilityPublic, VisibilityUnlisted, VisibilityPrivate} {
		if !IsValidVisibility(v) {
			t.Errorf("IsValidVisibility(%q) = false, want true", v)
		}
	}
	if IsValidVisibility("draft") {
		t.Error("IsValidVisibility(\"draft\") = true, want false")
	}
	if IsValidVisibility("") {
		t.Error("IsValidVisibility(\"\") = true, want false")
	}
}
