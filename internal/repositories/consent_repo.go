package repositories

import (
	"context"

	"github.com/publicart-catalog/backend/internal/models"
)

// ConsentRepo only inserts and reads; consent rows are never changed.
type ConsentRepo struct {
	db DB
}

func NewConsentRepo(db DB) *ConsentRepo {
	return &ConsentRepo{db: db}
}

func (r *ConsentRepo) Insert(ctx context.Context, c *models.ConsentRecord) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO consent_records (id, actor_token, content_type, content_ref, consent_version, consent_text_hash, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING recorded_at
	`, c.ID, c.ActorToken, c.ContentType, c.ContentRef, c.ConsentVersion, c.ConsentTextHash, c.IPAddress,
	).Scan(&c.RecordedAt)
	return mapError(err, "insert consent record", "consent record")
}

func (r *ConsentRepo) ListByContent(ctx context.Context, contentType, contentRef string) ([]models.ConsentRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, actor_token, content_type, content_ref, consent_version, consent_text_hash, ip_address, recorded_at
		FROM consent_records WHERE content_type = $1 AND content_ref = $2
		ORDER BY recorded_at DESC
	`, contentType, contentRef)
	if err != nil {
		return nil, mapError(err, "list consent records", "consent record")
	}
	defer rows.Close()

	records := []models.ConsentRecord{}
	for rows.Next() {
		var c models.ConsentRecord
		if err := rows.Scan(&c.ID, &c.ActorToken, &c.ContentType, &c.ContentRef, &c.ConsentVersion,
			&c.ConsentTextHash, &c.IPAddress, &c.RecordedAt); err != nil {
			return nil, mapError(err, "scan consent record", "consent record")
		}
		records = append(records, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "list consent records", "consent record")
	}
	return records, nil
}
