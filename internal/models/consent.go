package models

import (
	"time"

	"github.com/google/uuid"
)

// Consented content types
const ConsentContentSubmission = "submission"

// ConsentRecord is immutable once written.
type ConsentRecord struct {
	ID              uuid.UUID `json:"id"`
	ActorToken      string    `json:"actor_token"`
	ContentType     string    `json:"content_type"`
	ContentRef      string    `json:"content_ref"`
	ConsentVersion  string    `json:"consent_version"`
	ConsentTextHash string    `json:"consent_text_hash"`
	IPAddress       *string   `json:"ip_address,omitempty"`
	RecordedAt      time.Time `json:"recorded_at"`
}
