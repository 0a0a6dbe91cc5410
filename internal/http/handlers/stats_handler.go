package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/publicart-catalog/backend/internal/http/dto"
	"github.com/publicart-catalog/backend/internal/middleware"
	"github.com/publicart-catalog/backend/internal/models"
	"github.com/publicart-catalog/backend/internal/rbac"
)

type statsService interface {
	GetStatistics(ctx context.Context, windowDays int) (*models.Statistics, error)
}

type capabilityChecker interface {
	Require(ctx context.Context, actorToken string, capabilities ...string) error
}

type StatsHandler struct {
	stats       statsService
	permissions capabilityChecker
	log         *zap.Logger
}

func NewStatsHandler(stats statsService, permissions capabilityChecker, log *zap.Logger) *StatsHandler {
	return &StatsHandler{stats: stats, permissions: permissions, log: log}
}

// Get serves dashboard statistics for ?days= (clamped by the service).
func (h *StatsHandler) Get(c *fiber.Ctx) error {
	if err := h.permissions.Require(c.Context(), middleware.GetActorToken(c), rbac.CapAdmin, rbac.CapReview); err != nil {
		return writeError(c, h.log, err)
	}

	days := 0
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, h.log, "days", "must be an integer")
		}
		days = n
	}

	stats, err := h.stats.GetStatistics(c.Context(), days)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.OK(stats))
}
