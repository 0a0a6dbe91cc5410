package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/publicart-catalog/backend/internal/apperr"
	"github.com/publicart-catalog/backend/internal/config"
	"github.com/publicart-catalog/backend/internal/events"
	"github.com/publicart-catalog/backend/internal/models"
	"github.com/publicart-catalog/backend/internal/rbac"
	"github.com/publicart-catalog/backend/internal/repositories"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:                       "test-secret",
		JWTExpiration:                   time.Hour,
		MagicLinkTTL:                    15 * time.Minute,
		PublicBaseURL:                   "https://art.example.org",
		ListDefaultPerPage:              20,
		ListMaxPerPage:                  100,
		StatsMaxWindowDays:              365,
		StatsCacheTTL:                   30 * time.Second,
		StatsRecentActivityLimit:        20,
		NearbyRadiusMeters:              500,
		NearbyLimit:                     5,
		SubmissionRateLimitPerHour:      10,
		MagicLinkRateLimitPerHour:       3,
		MagicLinkResendRateLimitPerHour: 2,
		ConsentVersion:                  "2025-01",
		ConsentText:                     "I agree.",
	}
}

// fakeSubmissions mirrors the repository's guarded insert and conditional
// review under a mutex.
type fakeSubmissions struct {
	mu   sync.Mutex
	rows []*models.Submission
	seq  int

	createErr error
	// beforeCreate runs after the duplicate lookup and before the insert.
	beforeCreate func()
}

func (f *fakeSubmissions) Create(_ context.Context, s *models.Submission) error {
	if f.beforeCreate != nil {
		f.beforeCreate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if s.SubjectRef != nil {
		for _, r := range f.rows {
			if r.SubjectRef != nil && *r.SubjectRef == *s.SubjectRef && r.ActorToken == s.ActorToken &&
				r.Status == models.SubmissionStatusPending {
				return repositories.ErrPendingExists
			}
		}
	}
	f.seq++
	s.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(f.seq) * time.Second)
	cp := *s
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakeSubmissions) GetByID(_ context.Context, id uuid.UUID) (*models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("submission")
}

func (f *fakeSubmissions) FindPending(_ context.Context, subjectRef uuid.UUID, actorToken string) ([]models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Submission{}
	for _, r := range f.rows {
		if r.SubjectRef != nil && *r.SubjectRef == subjectRef && r.ActorToken == actorToken &&
			r.Status == models.SubmissionStatusPending {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeSubmissions) match(r *models.Submission, flt models.SubmissionFilter) bool {
	if flt.Status != nil && r.Status != *flt.Status {
		return false
	}
	if flt.SubjectType != nil && r.SubjectType != *flt.SubjectType {
		return false
	}
	if flt.Type != nil && r.Type != *flt.Type {
		return false
	}
	return true
}

func (f *fakeSubmissions) List(_ context.Context, flt models.SubmissionFilter) ([]models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Submission{}
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.match(f.rows[i], flt) {
			out = append(out, *f.rows[i])
		}
	}
	if flt.Offset >= len(out) {
		return []models.Submission{}, nil
	}
	out = out[flt.Offset:]
	if flt.Limit > 0 && len(out) > flt.Limit {
		out = out[:flt.Limit]
	}
	return out, nil
}

func (f *fakeSubmissions) Count(_ context.Context, flt models.SubmissionFilter) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.rows {
		if f.match(r, flt) {
			n++
		}
	}
	return n, nil
}

func (f *fakeSubmissions) Review(_ context.Context, u models.ReviewUpdate) (*models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ID == u.ID && r.Status == models.SubmissionStatusPending {
			r.Status = u.Status
			reviewedAt := u.ReviewedAt
			reviewer := u.ReviewerToken
			r.ReviewedAt = &reviewedAt
			r.ReviewerToken = &reviewer
			r.ReviewNotes = u.ReviewNotes
			cp := *r
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotPending
}

func (f *fakeSubmissions) pendingCount(subjectRef uuid.UUID, actor string) int {
	subs, _ := f.FindPending(context.Background(), subjectRef, actor)
	return len(subs)
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []models.AuditLog
	err     error
}

func (f *fakeAudit) Log(_ context.Context, e models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeAudit) GetByEntity(_ context.Context, entityType, entityID string, limit int) ([]models.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.AuditLog{}
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if f.entries[i].EntityType == entityType && f.entries[i].EntityID == entityID {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

func (f *fakeAudit) GetByActor(_ context.Context, actorToken string, limit int) ([]models.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.AuditLog{}
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if f.entries[i].ActorToken == actorToken {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

func (f *fakeAudit) all() []models.AuditLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.AuditLog(nil), f.entries...)
}

type fakeConsentStore struct {
	mu      sync.Mutex
	records []models.ConsentRecord
	err     error
}

func (f *fakeConsentStore) Insert(_ context.Context, c *models.ConsentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	c.RecordedAt = time.Now()
	f.records = append(f.records, *c)
	return nil
}

func (f *fakeConsentStore) ListByContent(_ context.Context, contentType, contentRef string) ([]models.ConsentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.ConsentRecord{}
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].ContentType == contentType && f.records[i].ContentRef == contentRef {
			out = append(out, f.records[i])
		}
	}
	return out, nil
}

type fakeNearby struct {
	found []models.NearbyArtwork
	err   error
	calls int
}

func (f *fakeNearby) FindNearby(context.Context, float64, float64, float64, int) ([]models.NearbyArtwork, error) {
	f.calls++
	return f.found, f.err
}

// fakePermissions grants capabilities from a fixed table.
type fakePermissions struct {
	caps map[string][]string
	err  error
}

func (f *fakePermissions) HasAny(_ context.Context, actor string, capabilities ...string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, held := range f.caps[actor] {
		for _, c := range capabilities {
			if held == c {
				return true, nil
			}
		}
	}
	return false, nil
}

func (f *fakePermissions) Require(ctx context.Context, actor string, capabilities ...string) error {
	ok, err := f.HasAny(ctx, actor, capabilities...)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden("insufficient capability")
	}
	return nil
}

func moderators() *fakePermissions {
	return &fakePermissions{caps: map[string][]string{
		"mod":   {rbac.CapReview},
		"admin": {rbac.CapAdmin},
	}}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, _ string, e events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

var errStorage = errors.New("storage unavailable")
