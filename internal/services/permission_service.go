package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/publicart-catalog/backend/internal/apperr"
	"github.com/publicart-catalog/backend/internal/models"
	"github.com/publicart-catalog/backend/internal/rbac"
)

type grantStore interface {
	Latest(ctx context.Context, actorToken, capability string) (*models.PermissionGrant, error)
	Insert(ctx context.Context, g *models.PermissionGrant) error
	ListActive(ctx context.Context, actorToken string) ([]models.PermissionGrant, error)
}

type GrantInput struct {
	ActorToken string
	Capability string
	Notes      *string
}

// PermissionService changes capability grants. Every change appends a grant
// row and writes one audit entry.
type PermissionService struct {
	grants      grantStore
	audit       auditWriter
	permissions permissionChecker
	log         *zap.Logger
}

func NewPermissionService(grants grantStore, audit auditWriter, permissions permissionChecker, log *zap.Logger) *PermissionService {
	return &PermissionService{grants: grants, audit: audit, permissions: permissions, log: log}
}

func (s *PermissionService) Grant(ctx context.Context, adminToken string, in GrantInput, meta models.RequestMeta) (*models.PermissionGrant, error) {
	return s.change(ctx, adminToken, in, true, meta)
}

func (s *PermissionService) Revoke(ctx context.Context, adminToken string, in GrantInput, meta models.RequestMeta) (*models.PermissionGrant, error) {
	return s.change(ctx, adminToken, in, false, meta)
}

func (s *PermissionService) change(ctx context.Context, adminToken string, in GrantInput, active bool, meta models.RequestMeta) (*models.PermissionGrant, error) {
	capability := rbac.Canonical(in.Capability)

	// Self-modification guard: compared before anything else is looked at.
	if capability == rbac.CapAdmin && in.ActorToken == adminToken {
		return nil, apperr.ValidationField("actor_token", "cannot change the admin capability on your own token")
	}
	if in.ActorToken == "" {
		return nil, apperr.ValidationField("actor_token", "required")
	}
	if !rbac.IsKnownCapability(capability) {
		return nil, apperr.ValidationField("capability", "must be one of admin, review, moderator, artwork.edit")
	}
	if err := s.permissions.Require(ctx, adminToken, rbac.CapAdmin); err != nil {
		return nil, err
	}

	prev, err := s.grants.Latest(ctx, in.ActorToken, capability)
	if err != nil {
		return nil, apperr.Dependency("get permission grant", err)
	}
	wasActive := prev != nil && prev.IsActive
	if !active && !wasActive {
		return nil, apperr.NotFound("active grant")
	}

	g := &models.PermissionGrant{
		ActorToken: in.ActorToken,
		Capability: capability,
		GrantedBy:  adminToken,
		IsActive:   active,
		Notes:      in.Notes,
	}
	if err := s.grants.Insert(ctx, g); err != nil {
		return nil, apperr.Dependency("insert permission grant", err)
	}

	action := models.AuditActionCreate
	if !active {
		action = models.AuditActionDelete
	} else if prev != nil {
		action = models.AuditActionUpdate
	}
	recordAudit(ctx, s.audit, s.log, models.AuditLog{
		EntityType: models.AuditEntityPermission,
		EntityID:   in.ActorToken + ":" + capability,
		Action:     action,
		ActorToken: adminToken,
		IPAddress:  optional(meta.IP),
		UserAgent:  optional(meta.UserAgent),
		OldData:    marshalOrNil(map[string]any{"is_active": wasActive}),
		NewData:    marshalOrNil(map[string]any{"is_active": active, "notes": in.Notes}),
		Metadata:   map[string]any{"capability": capability, "target": in.ActorToken},
	})

	s.log.Info("permission changed",
		zap.String("target", in.ActorToken),
		zap.String("capability", capability),
		zap.Bool("active", active),
		zap.String("by", adminToken),
	)
	return g, nil
}

// List returns the active grants of an actor. Actors may list their own.
func (s *PermissionService) List(ctx context.Context, callerToken, actorToken string) ([]models.PermissionGrant, error) {
	if callerToken != actorToken {
		if err := s.permissions.Require(ctx, callerToken, rbac.CapAdmin); err != nil {
			return nil, err
		}
	}
	grants, err := s.grants.ListActive(ctx, actorToken)
	if err != nil {
		return nil, apperr.Dependency("list permission grants", err)
	}
	return grants, nil
}
