package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/publicart-catalog/backend/internal/apperr"
	"github.com/publicart-catalog/backend/internal/auth"
	"github.com/publicart-catalog/backend/internal/config"
	"github.com/publicart-catalog/backend/internal/models"
	"github.com/publicart-catalog/backend/internal/ratelimit"
)

type actorStore interface {
	UpsertByEmailHash(ctx context.Context, emailHash string) (*models.Actor, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Actor, error)
}

// Mailer is the outbound mail collaborator.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LinkLedger records consumed magic links until they expire. Consume
// reports false when the id was already used.
type LinkLedger interface {
	Consume(ctx context.Context, id string, ttl time.Duration) (bool, error)
}

type RedisLinkLedger struct {
	rdb *redis.Client
}

func NewRedisLinkLedger(rdb *redis.Client) *RedisLinkLedger {
	return &RedisLinkLedger{rdb: rdb}
}

func (l *RedisLinkLedger) Consume(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	return l.rdb.SetNX(ctx, "magic_link:used:"+id, 1, ttl).Result()
}

type Session struct {
	Token string        `json:"token"`
	Actor *models.Actor `json:"actor"`
}

// AuthService signs actors in with emailed magic links. Addresses are never
// stored; only their hash is.
type AuthService struct {
	actors  actorStore
	limiter rateLimiter
	links   LinkLedger
	mailer  Mailer
	cfg     *config.Config
	log     *zap.Logger
}

func NewAuthService(actors actorStore, limiter rateLimiter, links LinkLedger, mailer Mailer, cfg *config.Config, log *zap.Logger) *AuthService {
	return &AuthService{actors: actors, limiter: limiter, links: links, mailer: mailer, cfg: cfg, log: log}
}

// HashEmail normalizes an address and returns its hex SHA-256.
func HashEmail(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.ValidationField("email", "must be a plain email address")
	}
	return strings.ToLower(email), nil
}

func (s *AuthService) RequestMagicLink(ctx context.Context, email string) error {
	return s.sendMagicLink(ctx, email, ratelimit.Rule{
		Name:   "magic_link",
		Max:    s.cfg.MagicLinkRateLimitPerHour,
		Window: time.Hour,
	})
}

func (s *AuthService) ResendMagicLink(ctx context.Context, email string) error {
	return s.sendMagicLink(ctx, email, ratelimit.Rule{
		Name:   "magic_link_resend",
		Max:    s.cfg.MagicLinkResendRateLimitPerHour,
		Window: time.Hour,
	})
}

func (s *AuthService) sendMagicLink(ctx context.Context, email string, rule ratelimit.Rule) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	emailHash := HashEmail(email)

	if err := s.limiter.Allow(ctx, rule, emailHash); err != nil {
		return err
	}

	token, err := auth.GenerateMagicLinkToken(s.cfg.JWTSecret, emailHash, s.cfg.MagicLinkTTL)
	if err != nil {
		return apperr.Dependency("sign magic link", err)
	}
	link := fmt.Sprintf("%s/auth/verify?token=%s", s.cfg.PublicBaseURL, url.QueryEscape(token))
	body := fmt.Sprintf("Use this link to sign in to the public art catalog:\n\n%s\n\nIt expires in %s.",
		link, s.cfg.MagicLinkTTL)

	if err := s.mailer.Send(ctx, email, "Your sign-in link", body); err != nil {
		s.log.Error("failed to send magic link", zap.String("rule", rule.Name), zap.Error(err))
		return apperr.Dependency("send magic link", err)
	}
	return nil
}

// Verify exchanges a magic link token for a session token. A link works
// once; the ledger entry lives until the token would have expired.
func (s *AuthService) Verify(ctx context.Context, token string) (*Session, error) {
	claims, err := auth.ParseMagicLinkToken(s.cfg.JWTSecret, token)
	if err != nil {
		s.log.Debug("magic link rejected", zap.Error(err))
		return nil, apperr.Unauthorized("invalid or expired link")
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < time.Second {
		ttl = time.Second
	}
	first, err := s.links.Consume(ctx, claims.ID, ttl)
	if err != nil {
		return nil, apperr.Dependency("consume magic link", err)
	}
	if !first {
		s.log.Info("magic link replayed", zap.String("link_id", claims.ID))
		return nil, apperr.Unauthorized("link already used")
	}

	actor, err := s.actors.UpsertByEmailHash(ctx, claims.EmailHash)
	if err != nil {
		return nil, apperr.Dependency("upsert actor", err)
	}

	session, err := auth.GenerateJWT(s.cfg.JWTSecret, actor.Token(), s.cfg.JWTExpiration)
	if err != nil {
		return nil, apperr.Dependency("sign session", err)
	}
	return &Session{Token: session, Actor: actor}, nil
}

func (s *AuthService) Me(ctx context.Context, actorToken string) (*models.Actor, error) {
	id, err := uuid.Parse(actorToken)
	if err != nil {
		return nil, apperr.NotFound("actor")
	}
	actor, err := s.actors.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Dependency("get actor", err)
	}
	return actor, nil
}
