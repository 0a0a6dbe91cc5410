package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/publicart-catalog/backend/internal/models"
)

type ActorRepo struct {
	db DB
}

func NewActorRepo(db DB) *ActorRepo {
	return &ActorRepo{db: db}
}

func (r *ActorRepo) UpsertByEmailHash(ctx context.Context, emailHash string) (*models.Actor, error) {
	var a models.Actor
	err := r.db.QueryRow(ctx, `
		INSERT INTO actors (email_hash)
		VALUES ($1)
		ON CONFLICT (email_hash) DO UPDATE SET last_active_at = now()
		RETURNING id, email_hash, created_at, last_active_at
	`, emailHash).Scan(&a.ID, &a.EmailHash, &a.CreatedAt, &a.LastActiveAt)
	if err != nil {
		return nil, mapError(err, "upsert actor", "actor")
	}
	return &a, nil
}

func (r *ActorRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Actor, error) {
	var a models.Actor
	err := r.db.QueryRow(ctx, `
		SELECT id, email_hash, created_at, last_active_at
		FROM actors WHERE id = $1
	`, id).Scan(&a.ID, &a.EmailHash, &a.CreatedAt, &a.LastActiveAt)
	if err != nil {
		return nil, mapError(err, "get actor", "actor")
	}
	return &a, nil
}
