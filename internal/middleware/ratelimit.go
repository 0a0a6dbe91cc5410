package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/publicart-catalog/backend/internal/ratelimit"
)

type limiter interface {
	Allow(ctx context.Context, rule ratelimit.Rule, key string) error
}

// RateLimitMiddleware throttles by client IP. The limiter lets requests
// through when its counter store is down.
func RateLimitMiddleware(l limiter, rule ratelimit.Rule) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := l.Allow(c.UserContext(), rule, c.IP()); err != nil {
			return reject(c, err)
		}
		return c.Next()
	}
}
