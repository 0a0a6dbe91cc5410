package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/publicart-catalog/backend/internal/apperr"
	"github.com/publicart-catalog/backend/internal/models"
)

const auditColumns = `id, entity_type, entity_id, action, actor_token, ip_address, user_agent,
	old_data, new_data, metadata, recorded_at`

// AuditRepo is append-only: it exposes no update or delete.
type AuditRepo struct {
	db DB
}

func NewAuditRepo(db DB) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Log(ctx context.Context, entry models.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}

	var meta []byte
	if entry.Metadata != nil {
		b, err := json.Marshal(entry.Metadata)
		if err != nil {
			return apperr.ValidationField("metadata", err.Error())
		}
		meta = b
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO audit_log (id, entity_type, entity_id, action, actor_token, ip_address, user_agent,
		                       old_data, new_data, metadata, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, entry.ID, entry.EntityType, entry.EntityID, entry.Action, entry.ActorToken, entry.IPAddress, entry.UserAgent,
		nullableJSON(entry.OldData), nullableJSON(entry.NewData), meta, entry.RecordedAt)
	return mapError(err, "insert audit entry", "audit entry")
}

// GetByActor returns the last limit entries written by an actor, newest first.
func (r *AuditRepo) GetByActor(ctx context.Context, actorToken string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+auditColumns+`
		FROM audit_log WHERE actor_token = $1
		ORDER BY recorded_at DESC LIMIT $2
	`, actorToken, limit)
	if err != nil {
		return nil, mapError(err, "list audit entries by actor", "audit entry")
	}
	return collectAudit(rows)
}

func (r *AuditRepo) GetByEntity(ctx context.Context, entityType, entityID string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+auditColumns+`
		FROM audit_log WHERE entity_type = $1 AND entity_id = $2
		ORDER BY recorded_at DESC LIMIT $3
	`, entityType, entityID, limit)
	if err != nil {
		return nil, mapError(err, "list audit entries by entity", "audit entry")
	}
	return collectAudit(rows)
}

// Recent returns the newest entries recorded since the given time.
func (r *AuditRepo) Recent(ctx context.Context, since time.Time, limit int) ([]models.AuditLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+auditColumns+`
		FROM audit_log WHERE recorded_at >= $1
		ORDER BY recorded_at DESC LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, mapError(err, "list recent audit entries", "audit entry")
	}
	return collectAudit(rows)
}

// CountByAction groups entries recorded since the given time by action,
// optionally restricted to some entity types.
func (r *AuditRepo) CountByAction(ctx context.Context, since time.Time, entityTypes ...string) (map[string]int, error) {
	b := psql.Select("action", "count(*)").From("audit_log").
		Where("recorded_at >= ?", since).
		GroupBy("action")
	if len(entityTypes) > 0 {
		b = b.Where(sq.Eq{"entity_type": entityTypes})
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, apperr.Dependency("build audit count query", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "count audit entries", "audit entry")
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var action string
		var n int
		if err := rows.Scan(&action, &n); err != nil {
			return nil, mapError(err, "scan audit counts", "audit entry")
		}
		counts[action] = n
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "count audit entries", "audit entry")
	}
	return counts, nil
}

type auditRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

func collectAudit(rows auditRows) ([]models.AuditLog, error) {
	defer rows.Close()

	logs := []models.AuditLog{}
	for rows.Next() {
		var l models.AuditLog
		var oldData, newData, meta []byte
		if err := rows.Scan(&l.ID, &l.EntityType, &l.EntityID, &l.Action, &l.ActorToken, &l.IPAddress, &l.UserAgent,
			&oldData, &newData, &meta, &l.RecordedAt); err != nil {
			return nil, mapError(err, "scan audit entry", "audit entry")
		}
		l.OldData = oldData
		l.NewData = newData
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &l.Metadata); err != nil {
				return nil, fmt.Errorf("audit entry %s metadata: %w", l.ID, err)
			}
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "read audit entries", "audit entry")
	}
	return logs, nil
}

func nullableJSON(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
