package i18n

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/sehaty-app/sehaty/internal/platform/httpx"
)

// Middleware annotates every request with its resolved language code.
// Mount after chi's RealIP so RemoteAddr carries the client address. A
// store failure propagates as a server error; there is no degraded mode.
func Middleware(negotiator *Negotiator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			code, err := negotiator.Resolve(r.Context(), ip, r.Header.Get("Accept-Language"))
			if err != nil {
				if logger != nil {
					logger.Error("resolve language", slog.String("ip", ip), slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithLang(r.Context(), code)))
		})
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
