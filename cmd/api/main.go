package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/publicart-catalog/backend/internal/apperr"
	"github.com/publicart-catalog/backend/internal/config"
	"github.com/publicart-catalog/backend/internal/db"
	"github.com/publicart-catalog/backend/internal/events"
	apphttp "github.com/publicart-catalog/backend/internal/http"
	"github.com/publicart-catalog/backend/internal/http/dto"
	"github.com/publicart-catalog/backend/internal/http/handlers"
	"github.com/publicart-catalog/backend/internal/middleware"
	"github.com/publicart-catalog/backend/internal/ratelimit"
	"github.com/publicart-catalog/backend/internal/rbac"
	"github.com/publicart-catalog/backend/internal/repositories"
	"github.com/publicart-catalog/backend/internal/services"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, db.PoolConfig{
		DSN:      cfg.PostgresDSN,
		MaxConns: int32(cfg.PostgresMaxConns),
		MinConns: int32(cfg.PostgresMinConns),
	}, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, cfg.PostgresDSN, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	submissionRepo := repositories.NewSubmissionRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)
	consentRepo := repositories.NewConsentRepo(pool)
	permissionRepo := repositories.NewPermissionRepo(pool)
	artworkRepo := repositories.NewArtworkRepo(pool)
	actorRepo := repositories.NewActorRepo(pool)

	// Shared components
	resolver := rbac.NewResolver(permissionRepo, cfg.BootstrapAdminTokens, log)
	limiter := ratelimit.New(ratelimit.NewRedisStore(rdb), log)
	publisher := events.NewRedisPublisher(rdb, log)
	mailer := services.NewMailClient(cfg.MailerURL, log)

	// Services
	consentService := services.NewConsentService(consentRepo, cfg, log)
	submissionService := services.NewSubmissionService(submissionRepo, consentService, auditRepo, artworkRepo, limiter, resolver, cfg, log)
	moderationService := services.NewModerationService(submissionRepo, auditRepo, consentRepo, resolver, publisher, cfg, log)
	permissionService := services.NewPermissionService(permissionRepo, auditRepo, resolver, log)
	statsService := services.NewStatsService(submissionRepo, auditRepo, services.NewRedisStatsCache(rdb), cfg, log)
	authService := services.NewAuthService(actorRepo, limiter, services.NewRedisLinkLedger(rdb), mailer, cfg, log)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var appErr error = apperr.Dependency("unhandled", err)
			if e, ok := err.(*fiber.Error); ok {
				if e.Code == fiber.StatusNotFound {
					appErr = apperr.NotFound("route")
				} else {
					appErr = apperr.Validation(e.Message)
				}
			}
			status, body := dto.ErrorFrom(appErr, middleware.GetRequestID(c))
			return c.Status(status).JSON(body)
		},
	})

	health := db.NewHealth().
		Add("postgres", pool.Ping).
		Add("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })

	apphttp.SetupRouter(app, cfg, log, limiter, health, apphttp.Handlers{
		Auth:        handlers.NewAuthHandler(authService, log),
		Submissions: handlers.NewSubmissionHandler(submissionService, log),
		Moderation:  handlers.NewModerationHandler(moderationService, log),
		Permissions: handlers.NewPermissionHandler(permissionService, log),
		Stats:       handlers.NewStatsHandler(statsService, resolver, log),
		Meta:        handlers.NewMetaHandler(consentService.Version()),
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
