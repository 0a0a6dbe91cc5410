package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/publicart-catalog/backend/internal/models"
)

func TestSubmissionReviewed_RoundTrip(t *testing.T) {
	subject := uuid.New()
	reviewer := "mod-1"
	reviewedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &models.Submission{
		ID:            uuid.New(),
		Type:          models.SubmissionTypeFieldEdit,
		SubjectType:   models.SubjectTypeArtwork,
		SubjectRef:    &subject,
		Status:        models.SubmissionStatusApproved,
		ReviewerToken: &reviewer,
		ReviewedAt:    &reviewedAt,
		PayloadOld:    models.Payload{{Name: "title", Value: json.RawMessage(`"Old"`)}},
		PayloadNew:    models.Payload{{Name: "title", Value: json.RawMessage(`"New"`)}},
	}

	e, err := NewSubmissionReviewed(s)
	require.NoError(t, err)
	assert.Equal(t, EventSubmissionReviewed, e.Type)

	wire, err := json.Marshal(e)
	require.NoError(t, err)
	var received Event
	require.NoError(t, json.Unmarshal(wire, &received))

	got, err := DecodeSubmissionReviewed(received)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.SubmissionID)
	assert.Equal(t, &subject, got.SubjectRef)
	assert.Equal(t, reviewer, got.ReviewerToken)
	assert.True(t, reviewedAt.Equal(got.ReviewedAt))
	assert.Equal(t, s.PayloadNew, got.PayloadNew)
}

func TestDecodeSubmissionReviewed_WrongType(t *testing.T) {
	_, err := DecodeSubmissionReviewed(Event{Type: "something_else"})
	assert.Error(t, err)
}

func TestDispatch(t *testing.T) {
	ev := Event{ID: uuid.New(), Type: EventSubmissionReviewed, OccurredAt: time.Now().UTC(), Payload: json.RawMessage(`{}`)}
	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	var got []Event
	collect := func(_ context.Context, e Event) { got = append(got, e) }

	dispatch(context.Background(), zap.NewNop(), StreamModeration, string(raw), collect)
	dispatch(context.Background(), zap.NewNop(), StreamModeration, "not json", collect)
	require.Len(t, got, 1)
	assert.Equal(t, ev.ID, got[0].ID)
	assert.Equal(t, EventSubmissionReviewed, got[0].Type)

	assert.NotPanics(t, func() {
		dispatch(context.Background(), zap.NewNop(), StreamModeration, string(raw), func(context.Context, Event) {
			panic("boom")
		})
	})
}
