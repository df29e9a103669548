package middleware

import (
	"context"
	"net/http"
	"strings"

	"connecthub/internal/httputil"
	"connecthub/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// UserIDKey is the context key for the authenticated user's ID
	UserIDKey contextKey = "user_id"
)

// SessionSource resolves the caller: a signed session token, or the process session.
type SessionSource interface {
	Decode(token string) (*model.User, error)
	Current() (*model.User, bool)
}

// AuthMiddleware requires a signed-in caller.
// Checks the Authorization header first, then falls back to the process session.
func AuthMiddleware(sessions SessionSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, status := resolve(sessions, r)
			switch status {
			case authInvalid:
				httputil.WriteUnauthorizedWithCode(w, model.CodeTokenInvalid, "Invalid authentication token")
				return
			case authMissing:
				httputil.WriteUnauthorized(w, "Not logged in")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// OptionalAuthMiddleware attaches the caller when known and lets anonymous requests through.
// An invalid bearer token is treated as anonymous.
func OptionalAuthMiddleware(sessions SessionSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, status := resolve(sessions, r); status == authOK {
				r = r.WithContext(WithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

type authStatus int

const (
	authOK authStatus = iota
	authMissing
	authInvalid
)

func resolve(sessions SessionSource, r *http.Request) (string, authStatus) {
	// 1. Bearer token issued at login
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return "", authInvalid
		}
		user, err := sessions.Decode(parts[1])
		if err != nil {
			return "", authInvalid
		}
		return user.ID, authOK
	}

	// 2. Fall back to the process session
	if user, ok := sessions.Current(); ok {
		return user.ID, authOK
	}
	return "", authMissing
}

// WithUserID stores the caller's ID in the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserIDFromContext extracts the user ID from the request context
// Returns the user ID and true if found, or "" and false if not found
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}
