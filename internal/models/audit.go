package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Audit actions
const (
	AuditActionCreate = "create"
	AuditActionUpdate = "update"
	AuditActionDelete = "delete"
)

// Audited entity types
const (
	AuditEntitySubmission = "submission"
	AuditEntityPermission = "permission"
)

// AuditLog is an append-only record of a mutating action.
type AuditLog struct {
	ID         uuid.UUID       `json:"id"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Action     string          `json:"action"`
	ActorToken string          `json:"actor_token"`
	IPAddress  *string         `json:"ip_address,omitempty"`
	UserAgent  *string         `json:"user_agent,omitempty"`
	OldData    json.RawMessage `json:"old_data,omitempty"`
	NewData    json.RawMessage `json:"new_data,omitempty"`
	Metadata   map[string]any  `json:"metadata,omitempty"`
	RecordedAt time.Time       `json:"recorded_at"`
}

func IsValidAuditAction(a string) bool {
	return a == AuditActionCreate || a == AuditActionUpdate || a == AuditActionDelete
}
