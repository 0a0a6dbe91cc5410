package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/publicart-catalog/backend/internal/apperr"
	"github.com/publicart-catalog/backend/internal/http/dto"
	"github.com/publicart-catalog/backend/internal/middleware"
	"github.com/publicart-catalog/backend/internal/models"
	"github.com/publicart-catalog/backend/internal/services"
)

type moderationService interface {
	List(ctx context.Context, actorToken string, filter models.SubmissionFilter, page, perPage int) (*services.Page, error)
	Review(ctx context.Context, id uuid.UUID, actorToken string, in services.ReviewInput, meta models.RequestMeta) (*models.Submission, error)
	History(ctx context.Context, id uuid.UUID, actorToken string) ([]models.AuditLog, error)
	Consents(ctx context.Context, id uuid.UUID, actorToken string) ([]models.ConsentRecord, error)
	ActorActivity(ctx context.Context, callerToken, actorToken string, limit int) ([]models.AuditLog, error)
}

type ModerationHandler struct {
	moderation moderationService
	log        *zap.Logger
}

func NewModerationHandler(moderation moderationService, log *zap.Logger) *ModerationHandler {
	return &ModerationHandler{moderation: moderation, log: log}
}

// List serves the moderation queue.
// Query: status, subject_type, type, startDate, endDate, page, per_page (or limit).
func (h *ModerationHandler) List(c *fiber.Ctx) error {
	filter, page, perPage, err := parseListQuery(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	result, err := h.moderation.List(c.Context(), middleware.GetActorToken(c), filter, page, perPage)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.OK(result))
}

func parseListQuery(c *fiber.Ctx) (models.SubmissionFilter, int, int, error) {
	var f models.SubmissionFilter
	var fields []apperr.FieldError

	if v := c.Query("status"); v != "" {
		f.Status = &v
	}
	if v := c.Query("subject_type"); v != "" {
		f.SubjectType = &v
	}
	if v := c.Query("type"); v != "" {
		t := models.SubmissionType(v)
		f.Type = &t
	}
	if v := c.Query("startDate"); v != "" {
		t, err := parseDate(v, false)
		if err != nil {
			fields = append(fields, apperr.FieldError{Field: "startDate", Message: "must be RFC3339 or YYYY-MM-DD"})
		} else {
			f.Start = &t
		}
	}
	if v := c.Query("endDate"); v != "" {
		t, err := parseDate(v, true)
		if err != nil {
			fields = append(fields, apperr.FieldError{Field: "endDate", Message: "must be RFC3339 or YYYY-MM-DD"})
		} else {
			f.End = &t
		}
	}

	page := 1
	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			fields = append(fields, apperr.FieldError{Field: "page", Message: "must be an integer"})
		}
		page = n
	}

	perPage := 0
	v := c.Query("per_page")
	if v == "" {
		v = c.Query("limit")
	}
	if v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			fields = append(fields, apperr.FieldError{Field: "per_page", Message: "must be an integer"})
		}
		perPage = n
	}

	if len(fields) > 0 {
		return f, 0, 0, apperr.ValidationFields(fields)
	}
	return f, page, perPage, nil
}

// parseDate accepts RFC3339 timestamps and plain dates. A plain end date
// covers that whole day.
func parseDate(v string, end bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, err
	}
	if end {
		t = t.AddDate(0, 0, 1)
	}
	return t, nil
}

func (h *ModerationHandler) Review(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, h.log, "id", "must be a uuid")
	}
	var req dto.ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, h.log, "body", "invalid request body")
	}

	sub, err := h.moderation.Review(c.Context(), id, middleware.GetActorToken(c), services.ReviewInput{
		Action: req.Action,
		Notes:  req.Notes,
	}, requestMeta(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.OK(sub))
}

func (h *ModerationHandler) History(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, h.log, "id", "must be a uuid")
	}
	entries, err := h.moderation.History(c.Context(), id, middleware.GetActorToken(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.OK(entries))
}

func (h *ModerationHandler) Consents(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, h.log, "id", "must be a uuid")
	}
	records, err := h.moderation.Consents(c.Context(), id, middleware.GetActorToken(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.OK(records))
}

// ActorAudit lists the latest audit entries written by one actor.
// Query: actor, limit.
func (h *ModerationHandler) ActorAudit(c *fiber.Ctx) error {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, h.log, "limit", "must be an integer")
		}
		limit = n
	}
	entries, err := h.moderation.ActorActivity(c.Context(), middleware.GetActorToken(c), c.Query("actor"), limit)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.OK(entries))
}
