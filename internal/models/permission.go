package models

import "time"

// PermissionGrant is one row of an actor's capability history. The most
// recent row for (actor, capability) decides whether it is held.
type PermissionGrant struct {
	ActorToken string    `json:"actor_token"`
	Capability string    `json:"capability"`
	GrantedBy  string    `json:"granted_by"`
	GrantedAt  time.Time `json:"granted_at"`
	IsActive   bool      `json:"is_active"`
	Notes      *string   `json:"notes,omitempty"`
}
