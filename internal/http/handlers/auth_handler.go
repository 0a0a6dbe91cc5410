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

type authService interface {
	RequestMagicLink(ctx context.Context, email string) error
	ResendMagicLink(ctx context.Context, email string) error
	Verify(ctx context.Context, token string) (*services.Session, error)
	Me(ctx context.Context, actorToken string) (*models.Actor, error)
}

type AuthHandler struct {
	auth authService
	log  *zap.Logger
}

func NewAuthHandler(auth authService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

func (h *AuthHandler) RequestMagicLink(c *fiber.Ctx) error {
	return h.send(c, h.auth.RequestMagicLink)
}

func (h *AuthHandler) ResendMagicLink(c *fiber.Ctx) error {
	return h.send(c, h.auth.ResendMagicLink)
}

func (h *AuthHandler) send(c *fiber.Ctx, fn func(ctx context.Context, email string) error) error {
	var req dto.MagicLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, h.log, "body", "invalid request body")
	}
	if err := fn(c.Context(), req.Email); err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(dto.OK(fiber.Map{"sent": true}))
}

func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	var req dto.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, h.log, "body", "invalid request body")
	}
	if req.Token == "" {
		return badRequest(c, h.log, "token", "required")
	}
	session, err := h.auth.Verify(c.Context(), req.Token)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.OK(session))
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	actor, err := h.auth.Me(c.Context(), middleware.GetActorToken(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.OK(actor))
}
