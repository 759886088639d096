package auth

import (
	"net/http"
	"strings"
)

// TokenMiddleware puts the caller's Slack token into the request context when one is present.
// Supports both header-based (Authorization: Bearer) and the legacy ?token= query parameter.
// Requests without a token pass through; handlers decide whether a token is required.
func TokenMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := extractSlackToken(r); token != "" {
				r = r.WithContext(WithSlackToken(r.Context(), token))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractSlackToken extracts the token from Authorization header or query
func extractSlackToken(r *http.Request) string {
	// 1. Authorization header (desktop and newer web clients)
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return strings.TrimSpace(parts[1])
		}
	}

	// 2. Query parameter (original web client)
	return r.URL.Query().Get("token")
}
