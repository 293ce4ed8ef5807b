package authz

import (
	"log/slog"
	"net/http"

	"github.com/sehaty-app/sehaty/internal/platform/httpx"
	"github.com/sehaty-app/sehaty/internal/shared"
)

// Middleware wires the Gate into chi route groups. Denial happens before
// the wrapped handler executes.
type Middleware struct {
	Gate     *Gate
	Registry *Registry
	Logger   *slog.Logger
}

// Require gates every request under it on the capability for resource. The
// resource name defaults to the module's model name; callers pass an
// override when an endpoint gates on a different conceptual resource (for
// example "cart" instead of "cartitems").
func (m Middleware) Require(resource string) func(http.Handler) http.Handler {
	if m.Registry != nil {
		m.Registry.register(resource)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := shared.IdentityFromContext(r.Context())
			if r.Method != http.MethodOptions && r.Method != http.MethodHead && !id.Authenticated {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}

			allowed, err := m.Gate.Authorize(r.Context(), id, r.Method, resource)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("authorize", slog.String("resource", resource), slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if !allowed {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "you don't have permission to access this")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuthenticated admits any logged-in identity without a capability
// check, for endpoints whose only gate is ownership of the loaded object.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !shared.IdentityFromContext(r.Context()).Authenticated {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
