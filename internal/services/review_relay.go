package services

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/publicart-catalog/backend/internal/events"
	"github.com/publicart-catalog/backend/internal/models"
)

type catalogApplier interface {
	Apply(ctx context.Context, reviewed *events.SubmissionReviewed) error
}

// ReviewRelay forwards approved submissions from the moderation stream to
// the catalog. Rejected and archived reviews are dropped.
type ReviewRelay struct {
	catalog  catalogApplier
	log      *zap.Logger
	attempts int
	backoff  time.Duration
	dropped  atomic.Int64
}

func NewReviewRelay(catalog catalogApplier, log *zap.Logger) *ReviewRelay {
	return &ReviewRelay{catalog: catalog, log: log, attempts: 3, backoff: time.Second}
}

// Handle returns true when the event needed no further work or was applied.
// Events it gives up on are counted in Dropped.
func (r *ReviewRelay) Handle(ctx context.Context, event events.Event) bool {
	if r.handle(ctx, event) {
		return true
	}
	r.dropped.Add(1)
	return false
}

// Dropped is the number of events Handle has given up on.
func (r *ReviewRelay) Dropped() int64 {
	return r.dropped.Load()
}

func (r *ReviewRelay) handle(ctx context.Context, event events.Event) bool {
	if event.Type != events.EventSubmissionReviewed {
		return true
	}
	reviewed, err := events.DecodeSubmissionReviewed(event)
	if err != nil {
		r.log.Error("failed to decode review event", zap.String("event_id", event.ID.String()), zap.Error(err))
		return false
	}
	if reviewed.Status != models.SubmissionStatusApproved {
		return true
	}

	for attempt := 1; attempt <= r.attempts; attempt++ {
		err = r.catalog.Apply(ctx, reviewed)
		if err == nil {
			r.log.Info("submission forwarded to catalog", zap.String("submission_id", reviewed.SubmissionID.String()))
			return true
		}
		r.log.Warn("catalog apply failed",
			zap.String("submission_id", reviewed.SubmissionID.String()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt == r.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(r.backoff * time.Duration(attempt)):
		}
	}
	r.log.Error("giving up on submission", zap.String("submission_id", reviewed.SubmissionID.String()))
	return false
}
