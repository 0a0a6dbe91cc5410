package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/publicart-catalog/backend/internal/http/dto"
	"github.com/publicart-catalog/backend/internal/middleware"
	"github.com/publicart-catalog/backend/internal/models"
	"github.com/publicart-catalog/backend/internal/services"
)

type submissionService interface {
	Create(ctx context.Context, actorToken string, in services.CreateSubmissionInput, meta models.RequestMeta) (*services.CreateSubmissionResult, error)
	GetPending(ctx context.Context, subjectRef uuid.UUID, actorToken string) ([]models.Submission, error)
	Get(ctx context.Context, id uuid.UUID, actorToken string) (*models.Submission, error)
}

type SubmissionHandler struct {
	submissions submissionService
	log         *zap.Logger
}

func NewSubmissionHandler(submissions submissionService, log *zap.Logger) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, log: log}
}

func (h *SubmissionHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateSubmissionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, h.log, "body", "invalid request body")
	}

	in := services.CreateSubmissionInput{
		Type:            models.SubmissionType(req.Type),
		SubjectType:     req.SubjectType,
		PayloadOld:      req.PayloadOld,
		PayloadNew:      req.PayloadNew,
		Notes:           req.Notes,
		ConsentAccepted: req.Consent,
	}
	if req.SubjectRef != nil && *req.SubjectRef != "" {
		ref, err := uuid.Parse(*req.SubjectRef)
		if err != nil {
			return badRequest(c, h.log, "subject_ref", "must be a uuid")
		}
		in.SubjectRef = &ref
	}

	res, err := h.submissions.Create(c.Context(), middleware.GetActorToken(c), in, requestMeta(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OK(res))
}

// Pending lists the caller's pending submissions for ?subject_ref=.
func (h *SubmissionHandler) Pending(c *fiber.Ctx) error {
	ref, err := uuid.Parse(c.Query("subject_ref"))
	if err != nil {
		return badRequest(c, h.log, "subject_ref", "must be a uuid")
	}
	subs, err := h.submissions.GetPending(c.Context(), ref, middleware.GetActorToken(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.OK(subs))
}

func (h *SubmissionHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, h.log, "id", "must be a uuid")
	}
	sub, err := h.submissions.Get(c.Context(), id, middleware.GetActorToken(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.OK(sub))
}
