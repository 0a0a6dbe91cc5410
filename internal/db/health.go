package db

import (
	"context"
	"time"
)

// Health pings each named store with a short deadline.
type Health struct {
	checks  map[string]func(ctx context.Context) error
	timeout time.Duration
}

func NewHealth() *Health {
	return &Health{checks: map[string]func(ctx context.Context) error{}, timeout: 2 * time.Second}
}

func (h *Health) Add(name string, check func(ctx context.Context) error) *Health {
	h.checks[name] = check
	return h
}

// Check returns "ok" or the error text per store, and whether all are up.
func (h *Health) Check(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	status := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}
	return status, healthy
}
