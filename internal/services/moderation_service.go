package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/publicart-catalog/backend/internal/apperr"
	"github.com/publicart-catalog/backend/internal/config"
	"github.com/publicart-catalog/backend/internal/events"
	"github.com/publicart-catalog/backend/internal/models"
	"github.com/publicart-catalog/backend/internal/rbac"
	"github.com/publicart-catalog/backend/internal/repositories"
)

type moderationStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	List(ctx context.Context, f models.SubmissionFilter) ([]models.Submission, error)
	Count(ctx context.Context, f models.SubmissionFilter) (int, error)
	Review(ctx context.Context, u models.ReviewUpdate) (*models.Submission, error)
}

type auditHistory interface {
	auditWriter
	GetByEntity(ctx context.Context, entityType, entityID string, limit int) ([]models.AuditLog, error)
	GetByActor(ctx context.Context, actorToken string, limit int) ([]models.AuditLog, error)
}

type consentHistory interface {
	ListByContent(ctx context.Context, contentType, contentRef string) ([]models.ConsentRecord, error)
}

// Page is one page of the moderation queue.
type Page struct {
	Items       []models.Submission `json:"items"`
	TotalItems  int                 `json:"totalItems"`
	CurrentPage int                 `json:"currentPage"`
	TotalPages  int                 `json:"totalPages"`
	PerPage     int                 `json:"perPage"`
}

type ReviewInput struct {
	Action string
	Notes  *string
}

type ModerationService struct {
	store       moderationStore
	audit       auditHistory
	consents    consentHistory
	permissions permissionChecker
	publisher   events.Publisher
	cfg         *config.Config
	log         *zap.Logger
	now         func() time.Time
}

func NewModerationService(
	store moderationStore,
	audit auditHistory,
	consents consentHistory,
	permissions permissionChecker,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *ModerationService {
	return &ModerationService{
		store:       store,
		audit:       audit,
		consents:    consents,
		permissions: permissions,
		publisher:   publisher,
		cfg:         cfg,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ClampPerPage bounds a requested page size to [1, max]. Zero selects the default.
func (s *ModerationService) ClampPerPage(perPage int) int {
	switch {
	case perPage == 0:
		return s.cfg.ListDefaultPerPage
	case perPage < 1:
		return 1
	case perPage > s.cfg.ListMaxPerPage:
		return s.cfg.ListMaxPerPage
	}
	return perPage
}

func (s *ModerationService) List(ctx context.Context, actorToken string, filter models.SubmissionFilter, page, perPage int) (*Page, error) {
	if err := s.permissions.Require(ctx, actorToken, rbac.CapReview, rbac.CapAdmin); err != nil {
		return nil, err
	}
	if page < 1 {
		return nil, apperr.ValidationField("page", "must be at least 1")
	}
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	perPage = s.ClampPerPage(perPage)

	total, err := s.store.Count(ctx, filter)
	if err != nil {
		return nil, apperr.Dependency("count submissions", err)
	}
	totalPages := (total + perPage - 1) / perPage
	if total > 0 && page > totalPages {
		return nil, apperr.NotFound("page")
	}

	result := &Page{
		Items:       []models.Submission{},
		TotalItems:  total,
		CurrentPage: page,
		TotalPages:  totalPages,
		PerPage:     perPage,
	}
	if total == 0 {
		return result, nil
	}

	filter.Limit = perPage
	filter.Offset = (page - 1) * perPage
	items, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, apperr.Dependency("list submissions", err)
	}
	result.Items = items
	return result, nil
}

func validateFilter(f models.SubmissionFilter) error {
	var fields []apperr.FieldError
	if f.Status != nil && !models.IsValidStatus(*f.Status) {
		fields = append(fields, apperr.FieldError{Field: "status", Message: "unknown status"})
	}
	if f.SubjectType != nil && !models.IsValidSubjectType(*f.SubjectType) {
		fields = append(fields, apperr.FieldError{Field: "subject_type", Message: "must be artwork or artist"})
	}
	if f.Type != nil {
		if _, ok := models.LookupVariant(*f.Type); !ok {
			fields = append(fields, apperr.FieldError{Field: "type", Message: "unknown submission type"})
		}
	}
	if f.Start != nil && f.End != nil && f.Start.After(*f.End) {
		fields = append(fields, apperr.FieldError{Field: "startDate", Message: "must not be after endDate"})
	}
	if len(fields) > 0 {
		return apperr.ValidationFields(fields)
	}
	return nil
}

// Review moves a pending submission to a terminal state. Only one of any
// number of concurrent reviews can succeed; the others get a conflict.
func (s *ModerationService) Review(ctx context.Context, id uuid.UUID, actorToken string, in ReviewInput, meta models.RequestMeta) (*models.Submission, error) {
	// 1. Permission
	if err := s.permissions.Require(ctx, actorToken, rbac.CapReview, rbac.CapAdmin); err != nil {
		return nil, err
	}

	// 2. Action
	if in.Action != models.ReviewActionApplyChanges && !models.IsValidTransition(models.SubmissionStatusPending, in.Action) {
		return nil, apperr.ValidationField("action", "must be one of approved, rejected, archived, apply_changes")
	}

	// 3. Existence
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Dependency("get submission", err)
	}
	if in.Action == models.ReviewActionApplyChanges {
		return nil, apperr.NotImplemented("apply_changes is not implemented")
	}
	if current.Status != models.SubmissionStatusPending {
		return nil, alreadyReviewed(current)
	}

	// 4. Conditional transition
	reviewed, err := s.store.Review(ctx, models.ReviewUpdate{
		ID:            id,
		Status:        in.Action,
		ReviewerToken: actorToken,
		ReviewNotes:   in.Notes,
		ReviewedAt:    s.now(),
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotPending) {
			return nil, s.lostRace(ctx, id)
		}
		return nil, apperr.Dependency("review submission", err)
	}

	// 5. Audit, best effort
	recordAudit(ctx, s.audit, s.log, models.AuditLog{
		EntityType: models.AuditEntitySubmission,
		EntityID:   id.String(),
		Action:     models.AuditActionUpdate,
		ActorToken: actorToken,
		IPAddress:  optional(meta.IP),
		UserAgent:  optional(meta.UserAgent),
		OldData:    marshalOrNil(map[string]any{"status": current.Status}),
		NewData: marshalOrNil(map[string]any{
			"status":         reviewed.Status,
			"reviewer_token": actorToken,
			"review_notes":   in.Notes,
		}),
		Metadata: map[string]any{
			"action":          in.Action,
			"submission_type": string(reviewed.Type),
			"subject_type":    reviewed.SubjectType,
		},
	})

	// 6. Notify downstream, best effort
	s.publishReviewed(ctx, reviewed)

	s.log.Info("submission reviewed",
		zap.String("submission_id", id.String()),
		zap.String("status", reviewed.Status),
		zap.String("reviewer", actorToken),
	)
	return reviewed, nil
}

// lostRace re-reads a submission whose conditional update matched nothing.
func (s *ModerationService) lostRace(ctx context.Context, id uuid.UUID) error {
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return apperr.Dependency("get submission", err)
	}
	return alreadyReviewed(current)
}

func alreadyReviewed(sub *models.Submission) error {
	return apperr.Conflict(fmt.Sprintf("submission already %s", sub.Status))
}

func (s *ModerationService) publishReviewed(ctx context.Context, sub *models.Submission) {
	if s.publisher == nil {
		return
	}
	event, err := events.NewSubmissionReviewed(sub)
	if err == nil {
		err = s.publisher.Publish(ctx, events.StreamModeration, event)
	}
	if err != nil {
		s.log.Warn("failed to publish review event", zap.String("submission_id", sub.ID.String()), zap.Error(err))
	}
}

// History returns the audit trail of a submission, newest first.
func (s *ModerationService) History(ctx context.Context, id uuid.UUID, actorToken string) ([]models.AuditLog, error) {
	if err := s.permissions.Require(ctx, actorToken, rbac.CapReview, rbac.CapAdmin); err != nil {
		return nil, err
	}
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return nil, apperr.Dependency("get submission", err)
	}
	entries, err := s.audit.GetByEntity(ctx, models.AuditEntitySubmission, id.String(), 100)
	if err != nil {
		return nil, apperr.Dependency("get submission history", err)
	}
	return entries, nil
}

// Consents returns the consent records attached to a submission, newest first.
func (s *ModerationService) Consents(ctx context.Context, id uuid.UUID, actorToken string) ([]models.ConsentRecord, error) {
	if err := s.permissions.Require(ctx, actorToken, rbac.CapReview, rbac.CapAdmin); err != nil {
		return nil, err
	}
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return nil, apperr.Dependency("get submission", err)
	}
	records, err := s.consents.ListByContent(ctx, models.ConsentContentSubmission, id.String())
	if err != nil {
		return nil, apperr.Dependency("list consent records", err)
	}
	return records, nil
}

// ActorActivity returns the last entries written by actorToken. The limit
// defaults to 50 and is capped at 200.
func (s *ModerationService) ActorActivity(ctx context.Context, callerToken, actorToken string, limit int) ([]models.AuditLog, error) {
	if err := s.permissions.Require(ctx, callerToken, rbac.CapReview, rbac.CapAdmin); err != nil {
		return nil, err
	}
	if actorToken == "" {
		return nil, apperr.ValidationField("actor", "required")
	}
	switch {
	case limit <= 0:
		limit = 50
	case limit > 200:
		limit = 200
	}
	entries, err := s.audit.GetByActor(ctx, actorToken, limit)
	if err != nil {
		return nil, apperr.Dependency("get actor activity", err)
	}
	return entries, nil
}
