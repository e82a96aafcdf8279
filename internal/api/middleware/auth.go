package middleware

import (
	"net/http"
	"strings"

	"libraryapi/internal/api/response"
	"libraryapi/internal/domain"
	"libraryapi/pkg/logger"
)

// Auth resolves bearer tokens to callers and guards admin routes.
type Auth struct {
	users  domain.UserService
	logger logger.Logger
}

func NewAuth(users domain.UserService, logger logger.Logger) *Auth {
	return &Auth{users: users, logger: logger}
}

func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// Authenticate rejects requests without a valid access token and stores
// the caller id in the request context.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callerID, err := a.users.CallerID(r.Context(), BearerToken(r))
		if err != nil {
			response.Error(w, r, a.logger, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(domain.WithActor(r.Context(), callerID)))
	})
}

// RequireAdmin must run inside Authenticate.
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := CallerID(r)
		if !ok {
			response.Error(w, r, a.logger, domain.ErrMissingToken)
			return
		}

		isAdmin, err := a.users.IsAdmin(r.Context(), callerID)
		if err != nil {
			response.Error(w, r, a.logger, err)
			return
		}
		if !isAdmin {
			a.logger.WarnContext(r.Context(), "Admin route refused", map[string]interface{}{
				"user_id": callerID,
				"path":    r.URL.Path,
			})
			response.Error(w, r, a.logger, domain.ErrAdminOnly)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Admin is Authenticate followed by RequireAdmin.
func (a *Auth) Admin(next http.Handler) http.Handler {
	return a.Authenticate(a.RequireAdmin(next))
}

func CallerID(r *http.Request) (int64, bool) {
	id := domain.ActorFromContext(r.Context())
	if id == nil {
		return 0, false
	}
	return *id, true
}
