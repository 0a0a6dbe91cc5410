package dto

import "github.com/publicart-catalog/backend/internal/models"

type CreateSubmissionRequest struct {
	Type        string         `json:"type"`
	SubjectType string         `json:"subject_type,omitempty"`
	SubjectRef  *string        `json:"subject_ref,omitempty"`
	PayloadOld  models.Payload `json:"payload_old,omitempty"`
	PayloadNew  models.Payload `json:"payload_new"`
	Notes       *string        `json:"notes,omitempty"`
	Consent     bool           `json:"consent"`
}

type ReviewRequest struct {
	Action string  `json:"action"` // approved / rejected / archived / apply_changes
	Notes  *string `json:"notes,omitempty"`
}

type PermissionRequest struct {
	ActorToken string  `json:"actor_token"`
	Capability string  `json:"capability"`
	Notes      *string `json:"notes,omitempty"`
}

type MagicLinkRequest struct {
	Email string `json:"email"`
}

type VerifyRequest struct {
	Token string `json:"token"`
}
