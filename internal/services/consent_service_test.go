package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/publicart-catalog/backend/internal/apperr"
	"github.com/publicart-catalog/backend/internal/models"
)

func TestHashConsentText_Deterministic(t *testing.T) {
	a := HashConsentText("I agree to the terms.\r\nVersion 2025-01\n")
	b := HashConsentText("  I agree to the terms.\nVersion 2025-01")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, HashConsentText("I agree to other terms."))
}

// A retried request is not deduplicated: each call leaves its own record.
func TestConsentService_RetryRecordsTwice(t *testing.T) {
	store := &fakeConsentStore{}
	svc := NewConsentService(store, testConfig(), zap.NewNop())
	meta := models.RequestMeta{IP: "192.0.2.10"}

	first, err := svc.Record(context.Background(), "actor-a", models.ConsentContentSubmission, "sub-1", meta)
	require.NoError(t, err)
	second, err := svc.Record(context.Background(), "actor-a", models.ConsentContentSubmission, "sub-1", meta)
	require.NoError(t, err)

	require.Len(t, store.records, 2)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.ConsentTextHash, second.ConsentTextHash)
	assert.Equal(t, "2025-01", second.ConsentVersion)
	assert.Equal(t, "192.0.2.10", *second.IPAddress)
}

func TestConsentService_Record_Errors(t *testing.T) {
	svc := NewConsentService(&fakeConsentStore{err: errStorage}, testConfig(), zap.NewNop())

	_, err := svc.Record(context.Background(), "", "submission", "x", models.RequestMeta{})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = svc.Record(context.Background(), "actor-a", "", "x", models.RequestMeta{})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Record(context.Background(), "actor-a", "submission", "x", models.RequestMeta{})
	assert.ErrorIs(t, err, apperr.ErrDependency)
}
