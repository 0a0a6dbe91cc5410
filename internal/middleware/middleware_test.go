package middleware

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/publicart-catalog/backend/internal/apperr"
	"github.com/publicart-catalog/backend/internal/auth"
	"github.com/publicart-catalog/backend/internal/ratelimit"
)

const secret = "test-secret"

func newApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(RequestIDMiddleware())
	for _, h := range handlers {
		app.Use(h)
	}
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(GetActorToken(c))
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	app := newApp(AuthMiddleware(secret, zap.NewNop()))
	session, err := auth.GenerateJWT(secret, "actor-1", time.Hour)
	require.NoError(t, err)
	magic, err := auth.GenerateMagicLinkToken(secret, "hash", time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid session", "Bearer " + session, fiber.StatusOK},
		{"missing header", "", fiber.StatusUnauthorized},
		{"no bearer prefix", session, fiber.StatusUnauthorized},
		{"magic link token", "Bearer " + magic, fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			if tt.status == fiber.StatusUnauthorized {
				var body struct {
					Success bool `json:"success"`
					Error   struct {
						Code      string `json:"code"`
						RequestID string `json:"request_id"`
					} `json:"error"`
				}
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.False(t, body.Success)
				assert.Equal(t, "unauthorized", body.Error.Code)
				assert.Equal(t, resp.Header.Get("X-Request-ID"), body.Error.RequestID)
			}
		})
	}
}

type countingLimiter struct {
	max   int
	count map[string]int
}

func (l *countingLimiter) Allow(_ context.Context, rule ratelimit.Rule, key string) error {
	l.count[rule.Name+key]++
	if l.count[rule.Name+key] > l.max {
		return apperr.RateLimited("try again in 1 minute", l.max)
	}
	return nil
}

func TestRateLimitMiddleware(t *testing.T) {
	l := &countingLimiter{max: 2, count: map[string]int{}}
	app := newApp(RateLimitMiddleware(l, ratelimit.Rule{Name: "ip", Max: 2, Window: time.Minute}))

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				ResetHint string `json:"reset_hint"`
				Max       int    `json:"max"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "rate_limited", body.Error.Code)
	assert.Equal(t, 2, body.Error.Details.Max)
	assert.Equal(t, "try again in 1 minute", body.Error.Details.ResetHint)
}

func TestRequestIDMiddleware(t *testing.T) {
	app := newApp()

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.Header.Get("X-Request-ID"))

	resp, err = app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Len(t, resp.Header.Get("X-Request-ID"), 36)
}

func TestValidRequestID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"abc-123", true},
		{"", false},
		{"has space", false},
		{"tab\there", false},
		{strings.Repeat("a", 128), true},
		{strings.Repeat("a", 129), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, validRequestID(tt.id), tt.id)
	}
}
