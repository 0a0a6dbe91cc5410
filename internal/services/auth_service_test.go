package services

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/publicart-catalog/backend/internal/apperr"
	"github.com/publicart-catalog/backend/internal/auth"
	"github.com/publicart-catalog/backend/internal/models"
	"github.com/publicart-catalog/backend/internal/ratelimit"
)

type fakeActors struct {
	byHash map[string]*models.Actor
}

func (f *fakeActors) UpsertByEmailHash(_ context.Context, hash string) (*models.Actor, error) {
	if f.byHash == nil {
		f.byHash = map[string]*models.Actor{}
	}
	if a, ok := f.byHash[hash]; ok {
		return a, nil
	}
	a := &models.Actor{ID: uuid.New(), EmailHash: hash, CreatedAt: time.Now(), LastActiveAt: time.Now()}
	f.byHash[hash] = a
	return a, nil
}

func (f *fakeActors) GetByID(_ context.Context, id uuid.UUID) (*models.Actor, error) {
	for _, a := range f.byHash {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, apperr.NotFound("actor")
}

type fakeLinkLedger struct {
	mu   sync.Mutex
	used map[string]time.Duration
	err  error
}

func (f *fakeLinkLedger) Consume(_ context.Context, id string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.used == nil {
		f.used = map[string]time.Duration{}
	}
	if _, ok := f.used[id]; ok {
		return false, nil
	}
	f.used[id] = ttl
	return true, nil
}

var linkToken = regexp.MustCompile(`token=(\S+)`)

func tokenFromMail(t *testing.T, body string) string {
	t.Helper()
	m := linkToken.FindStringSubmatch(body)
	require.Len(t, m, 2)
	tok, err := url.QueryUnescape(m[1])
	require.NoError(t, err)
	return tok
}

func TestAuthService_MagicLinkFlow(t *testing.T) {
	mailer := &mailerMock{SendFunc: func(context.Context, string, string, string) error { return nil }}
	limiter := allowAll()
	actors := &fakeActors{}
	svc := NewAuthService(actors, limiter, &fakeLinkLedger{}, mailer, testConfig(), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.RequestMagicLink(ctx, "  Someone@Example.org "))

	sent := mailer.SendCalls()
	require.Len(t, sent, 1)
	assert.Equal(t, "someone@example.org", sent[0].To)
	assert.True(t, strings.Contains(sent[0].Body, "https://art.example.org/auth/verify?token="))

	calls := limiter.AllowCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "magic_link", calls[0].Rule.Name)
	assert.Equal(t, 3, calls[0].Rule.Max)
	assert.Equal(t, HashEmail("someone@example.org"), calls[0].Key, "throttled by hash, not address")

	session, err := svc.Verify(ctx, tokenFromMail(t, sent[0].Body))
	require.NoError(t, err)
	claims, err := auth.ParseJWT("test-secret", session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.Actor.Token(), claims.ActorToken)
	assert.Equal(t, HashEmail("someone@example.org"), session.Actor.EmailHash)

	me, err := svc.Me(ctx, claims.ActorToken)
	require.NoError(t, err)
	assert.Equal(t, session.Actor.ID, me.ID)
}

func TestAuthService_ResendUsesItsOwnBudget(t *testing.T) {
	mailer := &mailerMock{SendFunc: func(context.Context, string, string, string) error { return nil }}
	limiter := allowAll()
	svc := NewAuthService(&fakeActors{}, limiter, &fakeLinkLedger{}, mailer, testConfig(), zap.NewNop())

	require.NoError(t, svc.ResendMagicLink(context.Background(), "someone@example.org"))
	calls := limiter.AllowCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "magic_link_resend", calls[0].Rule.Name)
	assert.Equal(t, 2, calls[0].Rule.Max)
}

func TestAuthService_RequestMagicLink_Errors(t *testing.T) {
	limited := &rateLimiterMock{AllowFunc: func(context.Context, ratelimit.Rule, string) error {
		return apperr.RateLimited("try again in 1 hour", 3)
	}}
	mailer := &mailerMock{SendFunc: func(context.Context, string, string, string) error { return errStorage }}

	svc := NewAuthService(&fakeActors{}, limited, &fakeLinkLedger{}, mailer, testConfig(), zap.NewNop())
	assert.ErrorIs(t, svc.RequestMagicLink(context.Background(), "not-an-email"), apperr.ErrValidation)
	assert.ErrorIs(t, svc.RequestMagicLink(context.Background(), "a@example.org"), apperr.ErrRateLimited)
	assert.Empty(t, mailer.SendCalls())

	svc = NewAuthService(&fakeActors{}, allowAll(), &fakeLinkLedger{}, mailer, testConfig(), zap.NewNop())
	assert.ErrorIs(t, svc.RequestMagicLink(context.Background(), "a@example.org"), apperr.ErrDependency)
}

func TestAuthService_Verify_Rejects(t *testing.T) {
	svc := NewAuthService(&fakeActors{}, allowAll(), &fakeLinkLedger{}, &mailerMock{}, testConfig(), zap.NewNop())

	session, err := auth.GenerateJWT("test-secret", "actor-1", time.Hour)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), session)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized, "a session token is not a magic link")
	_, err = svc.Verify(context.Background(), "garbage")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestAuthService_Verify_LinkWorksOnce(t *testing.T) {
	ledger := &fakeLinkLedger{}
	svc := NewAuthService(&fakeActors{}, allowAll(), ledger, &mailerMock{}, testConfig(), zap.NewNop())
	ctx := context.Background()

	link, err := auth.GenerateMagicLinkToken("test-secret", HashEmail("someone@example.org"), 15*time.Minute)
	require.NoError(t, err)

	_, err = svc.Verify(ctx, link)
	require.NoError(t, err)
	require.Len(t, ledger.used, 1)
	for _, ttl := range ledger.used {
		assert.InDelta(t, float64(15*time.Minute), float64(ttl), float64(5*time.Second), "kept until the link expires")
	}

	_, err = svc.Verify(ctx, link)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	other, err := auth.GenerateMagicLinkToken("test-secret", HashEmail("someone@example.org"), 15*time.Minute)
	require.NoError(t, err)
	_, err = svc.Verify(ctx, other)
	assert.NoError(t, err, "a fresh link still works")
}

func TestAuthService_Verify_LedgerFailure(t *testing.T) {
	svc := NewAuthService(&fakeActors{}, allowAll(), &fakeLinkLedger{err: errStorage}, &mailerMock{}, testConfig(), zap.NewNop())

	link, err := auth.GenerateMagicLinkToken("test-secret", "hash", time.Minute)
	require.NoError(t, err)
	_, err = svc.Verify(context.Background(), link)
	assert.ErrorIs(t, err, apperr.ErrDependency)
}
