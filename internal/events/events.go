package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/publicart-catalog/backend/internal/models"
)

// Event types
const (
	EventSubmissionReviewed = "submission_reviewed"
)

// Streams
const (
	StreamModeration = "events:moderation"
)

type Event struct {
	ID         uuid.UUID       `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Handler func(ctx context.Context, event Event)

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler Handler) error
}

// SubmissionReviewed is published after a submission leaves pending.
type SubmissionReviewed struct {
	SubmissionID  uuid.UUID             `json:"submission_id"`
	Type          models.SubmissionType `json:"type"`
	SubjectType   string                `json:"subject_type"`
	SubjectRef    *uuid.UUID            `json:"subject_ref,omitempty"`
	Status        string                `json:"status"`
	ReviewerToken string                `json:"reviewer_token"`
	ReviewedAt    time.Time             `json:"reviewed_at"`
	PayloadOld    models.Payload        `json:"payload_old"`
	PayloadNew    models.Payload        `json:"payload_new"`
}

func NewSubmissionReviewed(s *models.Submission) (Event, error) {
	p := SubmissionReviewed{
		SubmissionID: s.ID,
		Type:         s.Type,
		SubjectType:  s.SubjectType,
		SubjectRef:   s.SubjectRef,
		Status:       s.Status,
		PayloadOld:   s.PayloadOld,
		PayloadNew:   s.PayloadNew,
	}
	if s.ReviewerToken != nil {
		p.ReviewerToken = *s.ReviewerToken
	}
	if s.ReviewedAt != nil {
		p.ReviewedAt = *s.ReviewedAt
	}
	data, err := json.Marshal(p)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:         uuid.New(),
		Type:       EventSubmissionReviewed,
		OccurredAt: time.Now().UTC(),
		Payload:    data,
	}, nil
}

func DecodeSubmissionReviewed(e Event) (*SubmissionReviewed, error) {
	if e.Type != EventSubmissionReviewed {
		return nil, fmt.Errorf("unexpected event type %q", e.Type)
	}
	var p SubmissionReviewed
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return nil, fmt.Errorf("decode %s: %w", e.Type, err)
	}
	return &p, nil
}
