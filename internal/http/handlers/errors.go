package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/publicart-catalog/backend/internal/apperr"
	"github.com/publicart-catalog/backend/internal/http/dto"
	"github.com/publicart-catalog/backend/internal/middleware"
	"github.com/publicart-catalog/backend/internal/models"
)

// writeError maps an error to its status and envelope. Dependency failures
// are logged with the request id since their message is hidden.
func writeError(c *fiber.Ctx, log *zap.Logger, err error) error {
	reqID := middleware.GetRequestID(c)
	if apperr.CodeOf(err) == apperr.CodeDependency {
		log.Error("request failed",
			zap.String("request_id", reqID),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	status, body := dto.ErrorFrom(err, reqID)
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, log *zap.Logger, field, message string) error {
	return writeError(c, log, apperr.ValidationField(field, message))
}

func requestMeta(c *fiber.Ctx) models.RequestMeta {
	return models.RequestMeta{IP: c.IP(), UserAgent: c.Get(fiber.HeaderUserAgent)}
}
