package rbac

import (
	"context"

	"go.uber.org/zap"

	"github.com/publicart-catalog/backend/internal/apperr"
	"github.com/publicart-catalog/backend/internal/models"
)

// Capability constants
const (
	CapAdmin       = "admin"
	CapReview      = "review"
	CapModerator   = "moderator" // legacy name for review
	CapArtworkEdit = "artwork.edit"
)

// Implied lists what each capability grants in addition to itself.
var Implied = map[string][]string{
	CapAdmin: {CapReview, CapArtworkEdit},
}

var aliases = map[string]string{
	CapModerator: CapReview,
}

// Canonical maps legacy capability names to their current form.
func Canonical(capability string) string {
	if c, ok := aliases[capability]; ok {
		return c
	}
	return capability
}

func IsKnownCapability(capability string) bool {
	switch Canonical(capability) {
	case CapAdmin, CapReview, CapArtworkEdit:
		return true
	}
	return false
}

// grantersOf returns every stored capability that would satisfy capability,
// including its legacy aliases.
func grantersOf(capability string) []string {
	capability = Canonical(capability)
	out := []string{capability}
	for alias, target := range aliases {
		if target == capability {
			out = append(out, alias)
		}
	}
	for holder, implied := range Implied {
		for _, c := range implied {
			if c == capability {
				out = append(out, holder)
			}
		}
	}
	return out
}

type grantStore interface {
	Latest(ctx context.Context, actorToken, capability string) (*models.PermissionGrant, error)
}

// Resolver answers capability questions from grant history. A missing grant
// is a plain "no"; a storage failure is returned as an error.
type Resolver struct {
	grants    grantStore
	bootstrap map[string]struct{}
	log       *zap.Logger
}

func NewResolver(grants grantStore, bootstrapAdmins []string, log *zap.Logger) *Resolver {
	b := make(map[string]struct{}, len(bootstrapAdmins))
	for _, t := range bootstrapAdmins {
		b[t] = struct{}{}
	}
	return &Resolver{grants: grants, bootstrap: b, log: log}
}

func (r *Resolver) HasPermission(ctx context.Context, actorToken, capability string) (bool, error) {
	if actorToken == "" {
		return false, nil
	}
	for _, c := range grantersOf(capability) {
		if c == CapAdmin {
			if _, ok := r.bootstrap[actorToken]; ok {
				return true, nil
			}
		}
		g, err := r.grants.Latest(ctx, actorToken, c)
		if err != nil {
			r.log.Error("permission lookup failed",
				zap.String("actor", actorToken), zap.String("capability", c), zap.Error(err))
			return false, apperr.Dependency("resolve permission", err)
		}
		if g != nil && g.IsActive {
			return true, nil
		}
	}
	return false, nil
}

// HasAny reports whether the actor holds at least one of the capabilities.
func (r *Resolver) HasAny(ctx context.Context, actorToken string, capabilities ...string) (bool, error) {
	for _, c := range capabilities {
		ok, err := r.HasPermission(ctx, actorToken, c)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// Require returns a forbidden error unless the actor holds one of the capabilities.
func (r *Resolver) Require(ctx context.Context, actorToken string, capabilities ...string) error {
	ok, err := r.HasAny(ctx, actorToken, capabilities...)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden("insufficient capability")
	}
	return nil
}
