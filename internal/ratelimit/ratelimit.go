// Package ratelimit throttles requests with fixed-window counters that expire
// on the server side.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/publicart-catalog/backend/internal/apperr"
)

// Rule names a throttle and its budget per window.
type Rule struct {
	Name   string
	Max    int
	Window time.Duration
}

// CounterStore increments a counter and reports its remaining lifetime.
// The first increment of a key must set its expiry.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
}

// RedisStore runs INCR and EXPIRE NX in one MULTI so the counter can never
// be left without an expiry.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return incr.Val(), ttl.Val(), nil
}

type Limiter struct {
	store CounterStore
	log   *zap.Logger
}

func New(store CounterStore, log *zap.Logger) *Limiter {
	return &Limiter{store: store, log: log}
}

// Allow counts one request against rule for key. It returns a rate limited
// error once the budget is spent. A counter store failure lets the request
// through.
func (l *Limiter) Allow(ctx context.Context, rule Rule, key string) error {
	if rule.Max <= 0 {
		return nil
	}
	count, ttl, err := l.store.Incr(ctx, counterKey(rule.Name, key), rule.Window)
	if err != nil {
		l.log.Warn("rate counter unavailable, allowing request",
			zap.String("rule", rule.Name), zap.Error(err))
		return nil
	}
	if count > int64(rule.Max) {
		if ttl <= 0 {
			ttl = rule.Window
		}
		return apperr.RateLimited(ResetHint(ttl), rule.Max)
	}
	return nil
}

func counterKey(rule, key string) string {
	return fmt.Sprintf("rl:%s:%s", rule, key)
}

// ResetHint renders the time until a counter expires for humans.
func ResetHint(ttl time.Duration) string {
	switch {
	case ttl <= time.Minute:
		secs := int(math.Ceil(ttl.Seconds()))
		if secs <= 1 {
			return "try again in 1 second"
		}
		return fmt.Sprintf("try again in %d seconds", secs)
	case ttl < time.Hour:
		return plural(int(math.Ceil(ttl.Minutes())), "minute")
	default:
		return plural(int(math.Ceil(ttl.Hours())), "hour")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "try again in 1 " + unit
	}
	return fmt.Sprintf("try again in %d %ss", n, unit)
}
