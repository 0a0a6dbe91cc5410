package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/publicart-catalog/backend/internal/apperr"
	"github.com/publicart-catalog/backend/internal/config"
	"github.com/publicart-catalog/backend/internal/models"
)

const defaultStatsWindowDays = 30

type decisionCounter interface {
	CountDecisions(ctx context.Context, since time.Time) (models.ModerationDecisions, error)
}

type activityReader interface {
	CountByAction(ctx context.Context, since time.Time, entityTypes ...string) (map[string]int, error)
	Recent(ctx context.Context, since time.Time, limit int) ([]models.AuditLog, error)
}

// StatsCache stores rendered statistics for a short time.
type StatsCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type RedisStatsCache struct {
	rdb *redis.Client
}

func NewRedisStatsCache(rdb *redis.Client) *RedisStatsCache {
	return &RedisStatsCache{rdb: rdb}
}

// Get returns nil, nil on a miss.
func (c *RedisStatsCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return b, err
}

func (c *RedisStatsCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

type StatsService struct {
	submissions decisionCounter
	audit       activityReader
	cache       StatsCache
	cfg         *config.Config
	log         *zap.Logger
	now         func() time.Time
}

// NewStatsService accepts a nil cache.
func NewStatsService(submissions decisionCounter, audit activityReader, cache StatsCache, cfg *config.Config, log *zap.Logger) *StatsService {
	return &StatsService{
		submissions: submissions,
		audit:       audit,
		cache:       cache,
		cfg:         cfg,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ClampWindow bounds windowDays to [1, StatsMaxWindowDays]; zero or less
// selects the default window.
func (s *StatsService) ClampWindow(windowDays int) int {
	if windowDays <= 0 {
		windowDays = defaultStatsWindowDays
	}
	if windowDays > s.cfg.StatsMaxWindowDays {
		windowDays = s.cfg.StatsMaxWindowDays
	}
	return windowDays
}

func (s *StatsService) GetStatistics(ctx context.Context, windowDays int) (*models.Statistics, error) {
	windowDays = s.ClampWindow(windowDays)
	key := fmt.Sprintf("stats:v2:%d", windowDays)

	if cached := s.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	since := s.now().AddDate(0, 0, -windowDays)
	decisions, err := s.submissions.CountDecisions(ctx, since)
	if err != nil {
		return nil, apperr.Dependency("count moderation decisions", err)
	}
	actions, err := s.adminActions(ctx, since)
	if err != nil {
		return nil, err
	}
	recent, err := s.audit.Recent(ctx, since, s.cfg.StatsRecentActivityLimit)
	if err != nil {
		return nil, apperr.Dependency("read recent activity", err)
	}

	stats := &models.Statistics{
		WindowDays:          windowDays,
		ModerationDecisions: decisions,
		AdminActions:        actions,
		RecentActivity:      recent,
	}
	s.toCache(ctx, key, stats)
	return stats, nil
}

// adminActions leaves out the create entries written for every submission:
// only reviewer updates and permission changes count.
func (s *StatsService) adminActions(ctx context.Context, since time.Time) (models.AdminActions, error) {
	var a models.AdminActions
	submissions, err := s.audit.CountByAction(ctx, since, models.AuditEntitySubmission)
	if err != nil {
		return a, apperr.Dependency("count review actions", err)
	}
	permissions, err := s.audit.CountByAction(ctx, since, models.AuditEntityPermission)
	if err != nil {
		return a, apperr.Dependency("count permission changes", err)
	}

	a.Reviews = submissions[models.AuditActionUpdate]
	a.PermissionChanges = permissions
	a.Total = a.Reviews
	for _, n := range permissions {
		a.Total += n
	}
	return a, nil
}

func (s *StatsService) fromCache(ctx context.Context, key string) *models.Statistics {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn("stats cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	if data == nil {
		return nil
	}
	var stats models.Statistics
	if err := json.Unmarshal(data, &stats); err != nil {
		s.log.Warn("stats cache entry unreadable", zap.String("key", key), zap.Error(err))
		return nil
	}
	return &stats
}

func (s *StatsService) toCache(ctx context.Context, key string, stats *models.Statistics) {
	if s.cache == nil || s.cfg.StatsCacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cfg.StatsCacheTTL); err != nil {
		s.log.Warn("stats cache write failed", zap.String("key", key), zap.Error(err))
	}
}
