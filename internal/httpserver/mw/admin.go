package mw

import (
	"errors"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/readmehub/internal/auth"
	"github.com/MrSnakeDoc/readmehub/internal/logger"
)

// SessionToken extracts the session token from the Authorization header or,
// failing that, the session cookie.
func SessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(auth.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// RequireAdmin rejects requests without a valid admin session and stores the
// session in the request context for the handlers.
func RequireAdmin(sessions *auth.Manager, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "Authentication required.")
				return
			}

			s, err := sessions.Verify(r.Context(), token)
			switch {
			case err == nil:
			case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrRevoked):
				writeError(w, http.StatusUnauthorized, "Your session has expired. Please log in again.")
				return
			default:
				log.Error("session check failed", logger.Error(err))
				writeError(w, http.StatusServiceUnavailable, "Unable to verify session.")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), s)))
		})
	}
}
