package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey string

const UserKey contextKey = "user_id"

// TokenVerifier returns the user id carried by a bearer token
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// BearerAuth rejects requests without a valid "Authorization: Bearer <jwt>"
// and stores the user id in the request context.
func BearerAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			scheme, token, ok := strings.Cut(auth, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			userID, err := verifier.Verify(strings.TrimSpace(token))
			if err != nil {
				unauthorized(w, "could not validate credentials")
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext extracts the authenticated user id
func GetUserFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(UserKey).(string); ok {
		return id
	}
	return ""
}

// WithUser is used by tests and internal callers to fake an authenticated request
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserKey, userID)
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	WriteDetail(w, http.StatusUnauthorized, msg)
}

// WriteDetail writes the {"detail": msg} error body used across the API
func WriteDetail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": msg})
}
