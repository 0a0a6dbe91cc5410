package models

import (
	"time"

	"github.com/google/uuid"
)

// Actor is an authenticated participant. Only a hash of the email is kept.
type Actor struct {
	ID           uuid.UUID `json:"id"`
	EmailHash    string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// Token is the opaque actor token used throughout moderation records.
func (a Actor) Token() string {
	return a.ID.String()
}
