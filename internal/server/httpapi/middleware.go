package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/plume-im/plume/internal/common"
	"github.com/plume-im/plume/internal/server/models"
)

type contextKey int

const sessionKey contextKey = iota

// sessionFromContext returns the authenticated session, or nil for an
// anonymous request.
func sessionFromContext(ctx context.Context) *models.Session {
	session, _ := ctx.Value(sessionKey).(*models.Session)
	return session
}

// withAuth resolves the bearer token if one is present. A missing, unknown
// or expired token degrades the request to anonymous; only handlers wrapped
// in requireAuth will then reject it.
func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AccessTokenHeaderName)
		if token, ok := strings.CutPrefix(header, common.BearerPrefix); ok && token != "" {
			session, err := s.users.Authorize(r.Context(), token)
			if err == nil {
				r = r.WithContext(context.WithValue(r.Context(), sessionKey, session))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAuth(next func(w http.ResponseWriter, r *http.Request, session *models.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())
		if session == nil {
			s.writeError(r.Context(), w, common.ErrorUnauthorized)
			return
		}
		next(w, r, session)
	}
}
