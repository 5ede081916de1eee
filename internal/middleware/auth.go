package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"guidepost/internal/auth"
	"guidepost/internal/httputil"
)

// Auth verifies bearer tokens and attaches the authenticated subject to the
// request context. Requests without an Authorization header pass through
// anonymously; whether anonymity is acceptable is decided per route by
// RequireAuth. A nil verifier disables verification entirely.
func Auth(verifier auth.JWTVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("rejected bearer token",
					"path", r.URL.Path,
					"method", r.Method,
				)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, httputil.WithUserID(r, claims.GetUserID()))
		})
	}
}

// RequireAuth rejects anonymous requests. Wrap mutating routes with it; read
// routes stay public. When enforce is false (no JWKS endpoint configured) it
// passes everything through, which keeps local development credential-free.
func RequireAuth(enforce bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if enforce && httputil.GetUserID(r) == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
