package auth

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"chatdb/pkg/logger"
	"chatdb/pkg/utils"
)

type ctxSessionKey struct{}

// RequireSession verifies the Authorization bearer token and injects the
// resulting session into the request context. Handlers read it back via
// SessionFromContext.
func RequireSession(issuer *SessionIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := strings.TrimSpace(r.Header.Get("Authorization"))
			if h == "" || !strings.HasPrefix(h, "Bearer ") {
				logger.Warn("missing_bearer_token", "path", r.URL.Path, "remote", r.RemoteAddr)
				utils.JSONError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			sess, err := issuer.ToSession(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				logger.Warn("invalid_session_token", "path", r.URL.Path, "remote", r.RemoteAddr)
				utils.JSONError(w, http.StatusUnauthorized, "invalid session token")
				return
			}
			ctx := context.WithValue(r.Context(), ctxSessionKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the verified session, if any.
func SessionFromContext(ctx context.Context) (Session, bool) {
	v, ok := ctx.Value(ctxSessionKey{}).(Session)
	return v, ok
}

// UserIDFromContext returns the verified numeric user id or zero.
func UserIDFromContext(ctx context.Context) uint64 {
	sess, ok := SessionFromContext(ctx)
	if !ok {
		return 0
	}
	id, err := strconv.ParseUint(sess.User.ID, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
