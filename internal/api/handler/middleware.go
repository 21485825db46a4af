package handler

import (
	"context"
	"net/http"
	"strings"

	"attendance.service/internal/core/model"
)

type sessionKey struct{}

// SessionVerifier turns a bearer token into a session.
type SessionVerifier interface {
	Verify(token string) (model.Session, error)
}

// RequireSession rejects requests without a valid bearer token and stores
// the session for the handlers.
func RequireSession(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing token"})
				return
			}
			session, err := verifier.Verify(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

func WithSession(ctx context.Context, session model.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFromContext returns the request session, or the zero session which
// may not mutate anything.
func SessionFromContext(ctx context.Context) model.Session {
	session, _ := ctx.Value(sessionKey{}).(model.Session)
	return session
}
