package models

import (
	"time"

	"github.com/google/uuid"
)

// Submission statuses
const (
	SubmissionStatusPending  = "pending"
	SubmissionStatusApproved = "approved"
	SubmissionStatusRejected = "rejected"
	SubmissionStatusArchived = "archived"
)

// Review actions that are accepted but not yet wired to any transition.
const ReviewActionApplyChanges = "apply_changes"

// Subject (catalog entity) types
const (
	SubjectTypeArtwork = "artwork"
	SubjectTypeArtist  = "artist"
)

// Valid state transitions: from -> []to
var ValidSubmissionTransitions = map[string][]string{
	SubmissionStatusPending:  {SubmissionStatusApproved, SubmissionStatusRejected, SubmissionStatusArchived},
	SubmissionStatusApproved: {},
	SubmissionStatusRejected: {},
	SubmissionStatusArchived: {},
}

func IsValidTransition(from, to string) bool {
	allowed, ok := ValidSubmissionTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

func IsTerminalStatus(status string) bool {
	allowed, ok := ValidSubmissionTransitions[status]
	return ok && len(allowed) == 0
}

func IsValidStatus(status string) bool {
	_, ok := ValidSubmissionTransitions[status]
	return ok
}

func IsValidSubjectType(t string) bool {
	return t == SubjectTypeArtwork || t == SubjectTypeArtist
}

type Submission struct {
	ID            uuid.UUID      `json:"id"`
	Type          SubmissionType `json:"type"`
	SubjectType   string         `json:"subject_type"`
	SubjectRef    *uuid.UUID     `json:"subject_ref,omitempty"`
	ActorToken    string         `json:"actor_token"`
	PayloadOld    Payload        `json:"payload_old"`
	PayloadNew    Payload        `json:"payload_new"`
	Status        string         `json:"status"`
	Notes         *string        `json:"notes,omitempty"`
	ConsentID     *uuid.UUID     `json:"consent_id,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	ReviewedAt    *time.Time     `json:"reviewed_at,omitempty"`
	ReviewerToken *string        `json:"reviewer_token,omitempty"`
	ReviewNotes   *string        `json:"review_notes,omitempty"`
}

// SubmissionFilter narrows the moderation queue.
type SubmissionFilter struct {
	Status      *string
	SubjectType *string
	Type        *SubmissionType
	Start       *time.Time
	End         *time.Time
	Limit       int
	Offset      int
}

// ReviewUpdate is the terminal transition applied to a pending submission.
type ReviewUpdate struct {
	ID            uuid.UUID
	Status        string
	ReviewerToken string
	ReviewNotes   *string
	ReviewedAt    time.Time
}

// RequestMeta carries client details recorded with consent and audit rows.
type RequestMeta struct {
	IP        string
	UserAgent string
}
