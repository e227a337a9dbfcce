package auth

import (
	"context"
	"net/http"
)

type contextKey string

const guestIDKey contextKey = "guest_id"

// Middleware returns a chi-compatible middleware that verifies the bearer
// token on every request and stashes the guest ID in the request context.
func Middleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			guestID, err := VerifyToken(rawToken, secret)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), guestIDKey, guestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GuestID extracts the authenticated guest ID in handlers.
func GuestID(ctx context.Context) string {
	if id, ok := ctx.Value(guestIDKey).(string); ok {
		return id
	}
	return ""
}
