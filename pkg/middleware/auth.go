package middleware

import (
	"context"
	"net/http"
	"strconv"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// UserIDKey is the context key for the calling user's ID
	UserIDKey ContextKey = "user_id"

	// UserIDHeader names the header carrying the caller's user ID
	UserIDHeader = "X-User-ID"

	// DefaultUserID is used when no valid header is sent
	DefaultUserID int64 = 1
)

// UserIdentity reads the caller's ID from the X-User-ID header (DEV ONLY).
// Requests without a valid positive ID act as DefaultUserID.
func UserIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := DefaultUserID
		if raw := r.Header.Get(UserIDHeader); raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
				userID = id
			}
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// WithUserID returns a context carrying userID
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID extracts the user ID from the request context
func GetUserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}

// CallerID returns the user ID attached by UserIdentity, or DefaultUserID
// when the middleware did not run
func CallerID(r *http.Request) int64 {
	if id, ok := GetUserID(r.Context()); ok {
		return id
	}
	return DefaultUserID
}
