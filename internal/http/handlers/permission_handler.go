package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/publicart-catalog/backend/internal/http/dto"
	"github.com/publicart-catalog/backend/internal/middleware"
	"github.com/publicart-catalog/backend/internal/models"
	"github.com/publicart-catalog/backend/internal/services"
)

type permissionService interface {
	Grant(ctx context.Context, adminToken string, in services.GrantInput, meta models.RequestMeta) (*models.PermissionGrant, error)
	Revoke(ctx context.Context, adminToken string, in services.GrantInput, meta models.RequestMeta) (*models.PermissionGrant, error)
	List(ctx context.Context, callerToken, actorToken string) ([]models.PermissionGrant, error)
}

type PermissionHandler struct {
	permissions permissionService
	log         *zap.Logger
}

func NewPermissionHandler(permissions permissionService, log *zap.Logger) *PermissionHandler {
	return &PermissionHandler{permissions: permissions, log: log}
}

func (h *PermissionHandler) Grant(c *fiber.Ctx) error {
	return h.change(c, h.permissions.Grant)
}

func (h *PermissionHandler) Revoke(c *fiber.Ctx) error {
	return h.change(c, h.permissions.Revoke)
}

type grantFunc func(ctx context.Context, adminToken string, in services.GrantInput, meta models.RequestMeta) (*models.PermissionGrant, error)

func (h *PermissionHandler) change(c *fiber.Ctx, fn grantFunc) error {
	var req dto.PermissionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, h.log, "body", "invalid request body")
	}
	g, err := fn(c.Context(), middleware.GetActorToken(c), services.GrantInput{
		ActorToken: req.ActorToken,
		Capability: req.Capability,
		Notes:      req.Notes,
	}, requestMeta(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.OK(g))
}

func (h *PermissionHandler) List(c *fiber.Ctx) error {
	grants, err := h.permissions.List(c.Context(), middleware.GetActorToken(c), c.Params("actor"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.OK(grants))
}
