package auth

import (
	"net/http"
	"strings"

	"github.com/taskflowhq/taskflow/pkg/cerr"
)

// SessionCookie carries the session token for browser clients; API clients
// send it as a bearer token instead.
const SessionCookie = "taskflow_session"

// Guard wraps handlers that require a logged-in actor. The token is taken
// from the Authorization header first, then the session cookie. On success
// the actor identity is attached to the request context.
func (s *Server) Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			if c, err := r.Cookie(SessionCookie); err == nil {
				token = c.Value
			}
		}
		if token == "" {
			cerr.SetNewJSONError(r.Context(), cerr.Unauthenticated, "login required", nil)
			return
		}
		claims, err := s.sessions.Validate(token)
		if err != nil {
			cerr.SetNewJSONError(r.Context(), cerr.Unauthenticated, "session invalid or expired", err)
			return
		}
		ctx := ContextWithActor(r.Context(), Actor{ID: claims.UserID, Username: claims.Username})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
