package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/publicart-catalog/backend/internal/apperr"
	"github.com/publicart-catalog/backend/internal/auth"
	"github.com/publicart-catalog/backend/internal/http/dto"
)

const CtxActorToken = "actor_token"

// AuthMiddleware requires a session token and stores its actor token.
func AuthMiddleware(jwtSecret string, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return reject(c, apperr.Unauthorized("missing authorization header"))
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			return reject(c, apperr.Unauthorized("invalid authorization format"))
		}

		claims, err := auth.ParseJWT(jwtSecret, tokenStr)
		if err != nil || claims.ActorToken == "" {
			log.Debug("jwt parse error", zap.Error(err))
			return reject(c, apperr.Unauthorized("invalid or expired token"))
		}

		c.Locals(CtxActorToken, claims.ActorToken)
		return c.Next()
	}
}

func GetActorToken(c *fiber.Ctx) string {
	token, _ := c.Locals(CtxActorToken).(string)
	return token
}

func reject(c *fiber.Ctx, err error) error {
	status, body := dto.ErrorFrom(err, GetRequestID(c))
	return c.Status(status).JSON(body)
}
