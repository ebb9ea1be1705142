package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/quillbase/quillbase/internal/api"
	"github.com/quillbase/quillbase/internal/service"
)

const (
	UserIDKey contextKey = "user_id"
	AdminKey  contextKey = "admin"
)

// AuthValidator resolves a bearer token to an identity.
type AuthValidator interface {
	ValidateAPIKey(ctx context.Context, token string) (*service.Identity, error)
}

// APIKeyAuth requires a valid bearer API key and puts the resolved identity
// on the request context.
func APIKeyAuth(validator AuthValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				api.Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				api.Error(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")

			identity, err := validator.ValidateAPIKey(r.Context(), token)
			if err != nil {
				api.Error(w, http.StatusUnauthorized, "invalid api key")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, identity.UserID)
			ctx = context.WithValue(ctx, AdminKey, identity.Admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects callers whose API key is not an admin key. It must run
// after APIKeyAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			api.Error(w, http.StatusForbidden, "admin api key required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserID returns the authenticated user ID from context.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// IsAdmin reports whether the authenticated caller holds an admin key.
func IsAdmin(ctx context.Context) bool {
	admin, _ := ctx.Value(AdminKey).(bool)
	return admin
}
