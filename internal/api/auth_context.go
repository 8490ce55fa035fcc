package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/knotspotapp/knotspot-server/internal/domain"
	"github.com/knotspotapp/knotspot-server/internal/service"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// sessionKey is the context key for the verified session.
const sessionKey ctxKey = "session"

// getSession returns the verified session from context. The zero Session is
// returned for unauthenticated requests; services reject it downstream.
func getSession(ctx context.Context) domain.Session {
	session, _ := ctx.Value(sessionKey).(domain.Session)
	return session
}

// setSession stores the session in context.
func setSession(ctx context.Context, session domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// authMiddleware returns a middleware that verifies Bearer tokens and stores
// the session in context. Missing or invalid tokens pass through with no
// session; handlers and services reject where authentication is required.
func authMiddleware(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}

			token := authHeader[7:]
			session, err := auth.Verify(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(setSession(r.Context(), session)))
		})
	}
}
