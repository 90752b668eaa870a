package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/civicdesk/civicdesk/internal/domain"
)

// Actor identity arrives from the API gateway, which authenticates the user
// and forwards these headers. This service trusts them as-is.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

type contextKey string

const actorContextKey contextKey = "actor"

// Actor extracts the acting identity from the gateway headers and stores it
// on the request context. Requests without a parseable user id are rejected;
// the role is passed through untouched so the guard can reject unknown roles
// with its own reason code.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.Header.Get(HeaderUserID))
		if err != nil {
			http.Error(w, "missing or invalid user identity", http.StatusUnauthorized)
			return
		}

		actor := domain.Actor{
			ID:   id,
			Role: domain.Role(r.Header.Get(HeaderUserRole)),
		}
		ctx := context.WithValue(r.Context(), actorContextKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorFromContext returns the acting identity stored by the Actor middleware.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(domain.Actor)
	return actor, ok
}
