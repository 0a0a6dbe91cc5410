package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/publicart-catalog/backend/internal/config"
	"github.com/publicart-catalog/backend/internal/http/handlers"
	"github.com/publicart-catalog/backend/internal/middleware"
	"github.com/publicart-catalog/backend/internal/ratelimit"
)

type healthChecker interface {
	Check(ctx context.Context) (map[string]string, bool)
}

type Handlers struct {
	Auth        *handlers.AuthHandler
	Submissions *handlers.SubmissionHandler
	Moderation  *handlers.ModerationHandler
	Permissions *handlers.PermissionHandler
	Stats       *handlers.StatsHandler
	Meta        *handlers.MetaHandler
}

func SetupRouter(app *fiber.App, cfg *config.Config, log *zap.Logger, limiter *ratelimit.Limiter, health healthChecker, h Handlers) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		checks, ok := health.Check(c.Context())
		if !ok {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "checks": checks})
		}
		return c.JSON(fiber.Map{"status": "ok", "checks": checks})
	})

	api := app.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(limiter, ratelimit.Rule{
		Name:   "ip",
		Max:    cfg.IPRateLimitPerMinute,
		Window: time.Minute,
	}))

	// Public
	api.Get("/meta/submission-types", h.Meta.SubmissionTypes)
	api.Post("/auth/magic-link", h.Auth.RequestMagicLink)
	api.Post("/auth/magic-link/resend", h.Auth.ResendMagicLink)
	api.Post("/auth/verify", h.Auth.Verify)

	protected := api.Group("", middleware.AuthMiddleware(cfg.JWTSecret, log))

	protected.Get("/me", h.Auth.Me)

	// Submissions
	protected.Post("/submissions", h.Submissions.Create)
	protected.Get("/submissions/pending", h.Submissions.Pending)
	protected.Get("/submissions/:id", h.Submissions.Get)

	// Moderation
	protected.Get("/moderation/submissions", h.Moderation.List)
	protected.Post("/moderation/submissions/:id/review", h.Moderation.Review)
	protected.Get("/moderation/submissions/:id/history", h.Moderation.History)
	protected.Get("/moderation/submissions/:id/consent", h.Moderation.Consents)

	// Admin
	protected.Post("/admin/permissions/grant", h.Permissions.Grant)
	protected.Post("/admin/permissions/revoke", h.Permissions.Revoke)
	protected.Get("/admin/permissions/:actor", h.Permissions.List)
	protected.Get("/admin/stats", h.Stats.Get)
	protected.Get("/admin/audit", h.Moderation.ActorAudit)
}
