package authz

import (
	"context"
	"errors"

	"github.com/sehaty-app/sehaty/internal/shared"
)

// ErrNoGroup indicates the user has no group assignment.
var ErrNoGroup = errors.New("authz: user has no group")

// PermissionSource reads group assignments and granted codenames. The rbac
// service implements it against Postgres.
type PermissionSource interface {
	// FirstGroup returns the user's group. Single-group-per-user is the
	// provisioning invariant; with legacy multi-row data the oldest
	// assignment wins. Returns ErrNoGroup when none exists.
	FirstGroup(ctx context.Context, userID int64) (int64, error)
	// GroupHasCodename reports whether the group holds the permission.
	GroupHasCodename(ctx context.Context, groupID int64, codename string) (bool, error)
}

// Gate answers the capability question for a single request. It is a
// stateless predicate: every call reads the permission store fresh.
type Gate struct {
	perms PermissionSource
}

// NewGate constructs a Gate over the given permission source.
func NewGate(perms PermissionSource) *Gate {
	return &Gate{perms: perms}
}

// Authorize reports whether the identity may perform method against the
// named resource. Anonymous identities and users without a group are always
// denied. OPTIONS and HEAD are never gated and always pass.
func (g *Gate) Authorize(ctx context.Context, id shared.Identity, method, resource string) (bool, error) {
	action, gated, err := ActionForMethod(method)
	if err != nil {
		return false, err
	}
	if !gated {
		return true, nil
	}
	if !id.Authenticated {
		return false, nil
	}

	groupID, err := g.perms.FirstGroup(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, ErrNoGroup) {
			return false, nil
		}
		return false, err
	}
	return g.perms.GroupHasCodename(ctx, groupID, Codename(action, resource))
}

// OwnerOrPermitted combines the ownership test handlers apply after loading
// an object with the capability check: the acting user passes when they own
// the object, are staff, or hold the capability.
func (g *Gate) OwnerOrPermitted(ctx context.Context, id shared.Identity, ownerID int64, method, resource string) (bool, error) {
	if !id.Authenticated {
		return false, nil
	}
	if id.UserID == ownerID || id.IsStaff {
		return true, nil
	}
	return g.Authorize(ctx, id, method, resource)
}
