package shared

import "context"

// Role tags mirror the user_type column. Every account carries exactly one.
const (
	RoleUser            = "USER"
	RoleAdmin           = "ADMIN"
	RoleServiceProvider = "SERVICE_PROVIDER"
	RoleSuperAdmin      = "SUPER_ADMIN"
)

// Identity describes the acting principal for a request. The zero value is
// the anonymous identity.
type Identity struct {
	UserID        int64
	Email         string
	Role          string
	IsStaff       bool
	Authenticated bool
}

// Anonymous returns the unauthenticated identity marker.
func Anonymous() Identity {
	return Identity{}
}

type identityContextKey struct{}

// ContextWithIdentity stores the acting identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the acting identity, anonymous when absent.
func IdentityFromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(identityContextKey{}).(Identity)
	return id
}
