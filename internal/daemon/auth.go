package daemon

import (
	"context"
	"net/http"
	"strings"

	"relist/internal/identity"
)

type principalKey struct{}

// authenticated wraps a handler with bearer-token validation. The resolved
// principal is stored on the request context for handlers to read.
func (s *apiServer) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		principal, err := s.daemon.identity.Validate(r.Context(), token)
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		ctx := context.WithValue(r.Context(), principalKey{}, principal)
		next(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

func principalFrom(ctx context.Context) *identity.Principal {
	if principal, ok := ctx.Value(principalKey{}).(*identity.Principal); ok {
		return principal
	}
	return &identity.Principal{}
}
