package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-journal/internal/pkg/ratelimit"
)

// RateLimit enforces l per client IP. Limiter errors let the request through.
func RateLimit(l ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, err := l.Allow(r.Context(), ratelimit.ClientIP(r))
			if err != nil {
				slog.Warn("rate limiter unavailable, allowing request", "path", r.URL.Path, "err", err)
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.Allowed {
				writeJSONError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
