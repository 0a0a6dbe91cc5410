package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/publicart-catalog/backend/internal/apperr"
	"github.com/publicart-catalog/backend/internal/config"
	"github.com/publicart-catalog/backend/internal/models"
	"github.com/publicart-catalog/backend/internal/ratelimit"
	"github.com/publicart-catalog/backend/internal/rbac"
	"github.com/publicart-catalog/backend/internal/repositories"
)

type submissionStore interface {
	Create(ctx context.Context, s *models.Submission) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	FindPending(ctx context.Context, subjectRef uuid.UUID, actorToken string) ([]models.Submission, error)
}

type consentRecorder interface {
	Record(ctx context.Context, actorToken, contentType, contentRef string, meta models.RequestMeta) (*models.ConsentRecord, error)
}

type auditWriter interface {
	Log(ctx context.Context, entry models.AuditLog) error
}

type nearbyFinder interface {
	FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]models.NearbyArtwork, error)
}

type rateLimiter interface {
	Allow(ctx context.Context, rule ratelimit.Rule, key string) error
}

type permissionChecker interface {
	HasAny(ctx context.Context, actorToken string, capabilities ...string) (bool, error)
	Require(ctx context.Context, actorToken string, capabilities ...string) error
}

type CreateSubmissionInput struct {
	Type        models.SubmissionType
	SubjectType string
	SubjectRef  *uuid.UUID
	PayloadOld  models.Payload
	PayloadNew  models.Payload
	Notes       *string
	// ConsentAccepted must be true; the attestation is recorded before the insert.
	ConsentAccepted bool
}

type CreateSubmissionResult struct {
	Submission *models.Submission     `json:"submission"`
	Nearby     []models.NearbyArtwork `json:"nearby"`
}

type SubmissionService struct {
	store       submissionStore
	consent     consentRecorder
	audit       auditWriter
	artworks    nearbyFinder
	limiter     rateLimiter
	permissions permissionChecker
	cfg         *config.Config
	log         *zap.Logger
}

func NewSubmissionService(
	store submissionStore,
	consent consentRecorder,
	audit auditWriter,
	artworks nearbyFinder,
	limiter rateLimiter,
	permissions permissionChecker,
	cfg *config.Config,
	log *zap.Logger,
) *SubmissionService {
	return &SubmissionService{
		store:       store,
		consent:     consent,
		audit:       audit,
		artworks:    artworks,
		limiter:     limiter,
		permissions: permissions,
		cfg:         cfg,
		log:         log,
	}
}

func (s *SubmissionService) Create(ctx context.Context, actorToken string, in CreateSubmissionInput, meta models.RequestMeta) (*CreateSubmissionResult, error) {
	if actorToken == "" {
		return nil, apperr.Unauthorized("actor token required")
	}

	// 1. Variant validation
	variant, ok := models.LookupVariant(in.Type)
	if !ok {
		return nil, apperr.ValidationField("type", "must be one of new_entry, field_edit")
	}
	vin := models.VariantInput{
		SubjectType: in.SubjectType,
		SubjectRef:  in.SubjectRef,
		PayloadOld:  in.PayloadOld,
		PayloadNew:  in.PayloadNew,
	}
	if verrs := variant.Validate(vin); len(verrs) > 0 {
		fields := make([]apperr.FieldError, len(verrs))
		for i, e := range verrs {
			fields[i] = apperr.FieldError{Field: e.Field, Message: e.Message}
		}
		return nil, apperr.ValidationFields(fields)
	}
	if !in.ConsentAccepted {
		return nil, apperr.ValidationField("consent", "consent to the current terms is required")
	}

	// 2. Throttle
	if err := s.limiter.Allow(ctx, ratelimit.Rule{
		Name:   "submission",
		Max:    s.cfg.SubmissionRateLimitPerHour,
		Window: time.Hour,
	}, actorToken); err != nil {
		return nil, err
	}

	// 3. At most one pending submission per subject and actor
	if in.SubjectRef != nil {
		if err := s.checkNoPending(ctx, *in.SubjectRef, actorToken); err != nil {
			return nil, err
		}
	}

	sub := &models.Submission{
		ID:          uuid.New(),
		Type:        variant.Type(),
		SubjectType: variant.SubjectType(vin),
		SubjectRef:  in.SubjectRef,
		ActorToken:  actorToken,
		PayloadOld:  in.PayloadOld,
		PayloadNew:  in.PayloadNew,
		Status:      models.SubmissionStatusPending,
		Notes:       in.Notes,
	}
	if sub.PayloadOld == nil {
		sub.PayloadOld = models.Payload{}
	}

	// 4. Consent
	rec, err := s.consent.Record(ctx, actorToken, models.ConsentContentSubmission, sub.ID.String(), meta)
	if err != nil {
		return nil, err
	}
	sub.ConsentID = &rec.ID

	// 5. Guarded insert
	if err := s.store.Create(ctx, sub); err != nil {
		if errors.Is(err, repositories.ErrPendingExists) && in.SubjectRef != nil {
			return nil, s.duplicateError(ctx, *in.SubjectRef, actorToken)
		}
		return nil, apperr.Dependency("create submission", err)
	}

	// 6. Audit, best effort
	recordAudit(ctx, s.audit, s.log, models.AuditLog{
		EntityType: models.AuditEntitySubmission,
		EntityID:   sub.ID.String(),
		Action:     models.AuditActionCreate,
		ActorToken: actorToken,
		IPAddress:  optional(meta.IP),
		UserAgent:  optional(meta.UserAgent),
		OldData:    marshalOrNil(sub.PayloadOld),
		NewData:    marshalOrNil(sub.PayloadNew),
		Metadata: map[string]any{
			"submission_type": string(sub.Type),
			"subject_type":    sub.SubjectType,
			"subject_ref":     refString(sub.SubjectRef),
			"consent_id":      rec.ID.String(),
		},
	})

	s.log.Info("submission created",
		zap.String("submission_id", sub.ID.String()),
		zap.String("type", string(sub.Type)),
		zap.String("subject_type", sub.SubjectType),
	)

	return &CreateSubmissionResult{Submission: sub, Nearby: s.nearby(ctx, sub)}, nil
}

func (s *SubmissionService) checkNoPending(ctx context.Context, subjectRef uuid.UUID, actorToken string) error {
	existing, err := s.store.FindPending(ctx, subjectRef, actorToken)
	if err != nil {
		return apperr.Dependency("find pending submissions", err)
	}
	if len(existing) > 0 {
		return apperr.DuplicatePending(existing[0].ID)
	}
	return nil
}

// duplicateError names the row that won a concurrent insert.
func (s *SubmissionService) duplicateError(ctx context.Context, subjectRef uuid.UUID, actorToken string) error {
	existing, err := s.store.FindPending(ctx, subjectRef, actorToken)
	if err != nil || len(existing) == 0 {
		return repositories.ErrPendingExists
	}
	return apperr.DuplicatePending(existing[0].ID)
}

// nearby returns approved artworks close to a new entry. It never fails the
// submission.
func (s *SubmissionService) nearby(ctx context.Context, sub *models.Submission) []models.NearbyArtwork {
	if sub.Type != models.SubmissionTypeNewEntry {
		return nil
	}
	lat, okLat := sub.PayloadNew.Float("lat")
	lon, okLon := sub.PayloadNew.Float("lon")
	if !okLat || !okLon {
		return nil
	}
	found, err := s.artworks.FindNearby(ctx, lat, lon, s.cfg.NearbyRadiusMeters, s.cfg.NearbyLimit)
	if err != nil {
		s.log.Warn("nearby lookup failed", zap.String("submission_id", sub.ID.String()), zap.Error(err))
		return nil
	}
	return found
}

// GetPending returns the actor's pending submissions for a subject, newest first.
func (s *SubmissionService) GetPending(ctx context.Context, subjectRef uuid.UUID, actorToken string) ([]models.Submission, error) {
	if actorToken == "" {
		return nil, apperr.Unauthorized("actor token required")
	}
	subs, err := s.store.FindPending(ctx, subjectRef, actorToken)
	if err != nil {
		return nil, apperr.Dependency("find pending submissions", err)
	}
	return subs, nil
}

// Get returns a submission to its author or to a reviewer.
func (s *SubmissionService) Get(ctx context.Context, id uuid.UUID, actorToken string) (*models.Submission, error) {
	sub, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Dependency("get submission", err)
	}
	if sub.ActorToken == actorToken {
		return sub, nil
	}
	ok, err := s.permissions.HasAny(ctx, actorToken, rbac.CapReview, rbac.CapAdmin)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("submission")
	}
	return sub, nil
}

// recordAudit writes an audit entry after the mutation it describes. A
// failure is logged and never undoes the mutation.
func recordAudit(ctx context.Context, w auditWriter, log *zap.Logger, entry models.AuditLog) {
	if err := w.Log(ctx, entry); err != nil {
		log.Error("failed to write audit entry",
			zap.String("entity_type", entry.EntityType),
			zap.String("entity_id", entry.EntityID),
			zap.String("action", entry.Action),
			zap.Error(err),
		)
	}
}

func marshalOrNil(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

func refString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
