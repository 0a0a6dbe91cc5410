package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/publicart-catalog/backend/internal/models"
)

// PermissionRepo stores grant history. Grants and revocations are both new
// rows; the latest row per (actor, capability) wins.
type PermissionRepo struct {
	db DB
}

func NewPermissionRepo(db DB) *PermissionRepo {
	return &PermissionRepo{db: db}
}

// Latest returns the most recent grant row, or nil when none exists.
func (r *PermissionRepo) Latest(ctx context.Context, actorToken, capability string) (*models.PermissionGrant, error) {
	var g models.PermissionGrant
	err := r.db.QueryRow(ctx, `
		SELECT actor_token, capability, granted_by, granted_at, is_active, notes
		FROM permission_grants
		WHERE actor_token = $1 AND capability = $2
		ORDER BY granted_at DESC, id DESC
		LIMIT 1
	`, actorToken, capability).Scan(&g.ActorToken, &g.Capability, &g.GrantedBy, &g.GrantedAt, &g.IsActive, &g.Notes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err, "get permission grant", "permission grant")
	}
	return &g, nil
}

func (r *PermissionRepo) Insert(ctx context.Context, g *models.PermissionGrant) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO permission_grants (actor_token, capability, granted_by, is_active, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING granted_at
	`, g.ActorToken, g.Capability, g.GrantedBy, g.IsActive, g.Notes).Scan(&g.GrantedAt)
	return mapError(err, "insert permission grant", "permission grant")
}

// ListActive returns the capabilities currently held by an actor.
func (r *PermissionRepo) ListActive(ctx context.Context, actorToken string) ([]models.PermissionGrant, error) {
	rows, err := r.db.Query(ctx, `
		SELECT actor_token, capability, granted_by, granted_at, is_active, notes
		FROM (
			SELECT DISTINCT ON (capability) actor_token, capability, granted_by, granted_at, is_active, notes
			FROM permission_grants
			WHERE actor_token = $1
			ORDER BY capability, granted_at DESC, id DESC
		) latest
		WHERE is_active
		ORDER BY capability
	`, actorToken)
	if err != nil {
		return nil, mapError(err, "list permission grants", "permission grant")
	}
	defer rows.Close()

	grants := []models.PermissionGrant{}
	for rows.Next() {
		var g models.PermissionGrant
		if err := rows.Scan(&g.ActorToken, &g.Capability, &g.GrantedBy, &g.GrantedAt, &g.IsActive, &g.Notes); err != nil {
			return nil, mapError(err, "scan permission grant", "permission grant")
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "list permission grants", "permission grant")
	}
	return grants, nil
}
