package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/publicart-catalog/backend/internal/apperr"
	"github.com/publicart-catalog/backend/internal/config"
	"github.com/publicart-catalog/backend/internal/models"
)

type consentStore interface {
	Insert(ctx context.Context, c *models.ConsentRecord) error
}

// ConsentService writes one consent record per call. Retries are not
// deduplicated: a repeated call leaves two records.
type ConsentService struct {
	store    consentStore
	version  string
	textHash string
	log      *zap.Logger
}

func NewConsentService(store consentStore, cfg *config.Config, log *zap.Logger) *ConsentService {
	return &ConsentService{
		store:    store,
		version:  cfg.ConsentVersion,
		textHash: HashConsentText(cfg.ConsentText),
		log:      log,
	}
}

// HashConsentText hashes the canonical form of a consent text: line endings
// normalized and surrounding whitespace trimmed.
func HashConsentText(text string) string {
	canonical := strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

func (s *ConsentService) Version() string { return s.version }

func (s *ConsentService) Record(ctx context.Context, actorToken, contentType, contentRef string, meta models.RequestMeta) (*models.ConsentRecord, error) {
	if actorToken == "" {
		return nil, apperr.Unauthorized("actor token required")
	}
	if contentType == "" || contentRef == "" {
		return nil, apperr.Validation("consent content is required")
	}

	rec := &models.ConsentRecord{
		ID:              uuid.New(),
		ActorToken:      actorToken,
		ContentType:     contentType,
		ContentRef:      contentRef,
		ConsentVersion:  s.version,
		ConsentTextHash: s.textHash,
		IPAddress:       optional(meta.IP),
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		s.log.Error("failed to record consent",
			zap.String("content_type", contentType), zap.String("content_ref", contentRef), zap.Error(err))
		return nil, apperr.Dependency("record consent", err)
	}
	return rec, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
