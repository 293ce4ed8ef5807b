package auth

import (
	"net/http"
	"strings"

	"github.com/sehaty-app/sehaty/internal/shared"
)

// Middleware resolves the Bearer token into an identity. Requests
// without a token, or with an invalid one, proceed anonymously; route
// gates decide whether that is acceptable.
func Middleware(tokens *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := tokens.Parse(raw)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			id := shared.Identity{
				UserID:        claims.UserID,
				Email:         claims.Email,
				Role:          claims.Role,
				IsStaff:       claims.IsStaff,
				Authenticated: true,
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), id)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
