package models

import "testing"

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		// Review outcomes
		{SubmissionStatusPending, SubmissionStatusApproved, true},
		{SubmissionStatusPending, SubmissionStatusRejected, true},
		{SubmissionStatusPending, SubmissionStatusArchived, true},

		// Terminal states never move
		{SubmissionStatusApproved, SubmissionStatusRejected, false},
		{SubmissionStatusApproved, SubmissionStatusPending, false},
		{SubmissionStatusRejected, SubmissionStatusApproved, false},
		{SubmissionStatusArchived, SubmissionStatusApproved, false},

		// Invalid
		{SubmissionStatusPending, SubmissionStatusPending, false},
		{SubmissionStatusPending, ReviewActionApplyChanges, false},
		{"nonexistent", SubmissionStatusApproved, false},
		{SubmissionStatusPending, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestAllStatusesHaveTransitionEntry(t *testing.T) {
	allStatuses := []string{
		SubmissionStatusPending, SubmissionStatusApproved,
		SubmissionStatusRejected, SubmissionStatusArchived,
	}

	for _, status := range allStatuses {
		if _, ok := ValidSubmissionTransitions[status]; !ok {
			t.Errorf("status %q missing from ValidSubmissionTransitions map", status)
		}
	}
}

func TestTerminalStatusesHaveNoTransitions(t *testing.T) {
	terminal := []string{SubmissionStatusApproved, SubmissionStatusRejected, SubmissionStatusArchived}
	for _, status := range terminal {
		if !IsTerminalStatus(status) {
			t.Errorf("status %q should be terminal, got transitions %v", status, ValidSubmissionTransitions[status])
		}
	}
	if IsTerminalStatus(SubmissionStatusPending) {
		t.Error("pending must not be terminal")
	}
}
