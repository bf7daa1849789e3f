package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// contextKey is an unexported type used for context keys in this package.
// A package-private key type means only this package can read or write the
// userID value — no collisions with other packages' context values.
type contextKey string

const userIDKey contextKey = "userID"

// RequireAuth enforces bearer-token authentication on protected routes.
//
// It reads the "Authorization: Bearer <token>" header, validates the JWT
// as an access token, and stores the userID in the request context. A
// missing or invalid token ends the chain with 401 Unauthorized.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthenticated","message":"valid authentication required"}`))
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns ("", false) if the request carried no valid token.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// ContextWithUserID returns a context carrying the given user ID. Used by
// handler tests to simulate an authenticated request without a real JWT.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// extractUserID reads and validates the bearer token from the
// Authorization header.
func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", errors.New("auth: missing bearer token")
	}
	return tokens.ValidateAccess(strings.TrimSpace(header[len(prefix):]))
}
