package gateway

import (
	"context"
	"net/http"
	"strings"

	"github.com/lanepark/chesshall/pkg/gamedto"
)

type contextKey int

const identityContextKey contextKey = iota

// Identity is the authenticated caller attached to the request context
// by the auth middleware.
type Identity struct {
	ID   string
	Name string
}

func identityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(Identity)
	return id, ok
}

// requireAuth resolves the session token from the auth cookie or a
// Bearer header, loads the user, and stores the Identity in the
// request context. Requests without a valid token get a structured 401.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := s.tokenFrom(r)
		if token == "" {
			s.writeUnauthenticated(w)
			return
		}

		user, err := s.authSvc.UserFromToken(r.Context(), token)
		if err != nil {
			s.writeUnauthenticated(w)
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey, Identity{ID: user.ID, Name: user.Username})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) tokenFrom(r *http.Request) string {
	if c, err := r.Cookie(s.cookieName); err == nil && strings.TrimSpace(c.Value) != "" {
		return strings.TrimSpace(c.Value)
	}
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func (s *Server) writeUnauthenticated(w http.ResponseWriter) {
	s.writeError(w, http.StatusUnauthorized, gamedto.DomainError{
		Kind:    gamedto.KindUnauthenticated,
		Message: s.messages.MustRender("errors.unauthenticated", nil),
	})
}
