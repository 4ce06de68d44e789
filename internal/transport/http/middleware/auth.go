package middleware

import (
	"log/slog"
	"net/http"
)

// RequireSecret rejects every request with 500 when the operator secret is
// not configured, so a missing secret is never mistaken for a bad token.
func RequireSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				slog.Error("NOTIFY_SECRET not configured", "path", r.URL.Path)
				writeJSONError(w, http.StatusInternalServerError, "Server misconfigured")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OperatorAuth admits requests whose Authorization header is exactly
// "Bearer <secret>". An empty secret admits nothing.
func OperatorAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" || r.Header.Get("Authorization") != "Bearer "+secret {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
