package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	pkghttp "github.com/BradenHooton/lockbox/pkg/http"
)

// AdminTokenHeader carries the shared admin secret
const AdminTokenHeader = "X-Admin-Token"

// RequireAdminToken rejects requests whose X-Admin-Token does not match token
func RequireAdminToken(token string, ipConfig *pkghttp.IPConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	expected := []byte(token)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get(AdminTokenHeader))

			if len(expected) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
				logger.Warn("admin token rejected",
					slog.String("path", r.URL.Path),
					slog.String("source", pkghttp.ExtractClientIP(r, ipConfig)))
				pkghttp.WriteForbidden(w, "Forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
