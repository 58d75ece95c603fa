package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// RequestAllower decides whether a caller may make another request. The Redis
// rate limiter implements it; a nil allower disables limiting.
type RequestAllower interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit caps each client IP at limit requests per window. Limiter
// failures fail open: a broken Redis must not take payments down with it.
func RateLimit(limiter RequestAllower, limit int, window time.Duration, logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			ok, err := limiter.Allow(r.Context(), host, limit, window)
			if err != nil {
				logger.Warn().Err(err).Msg("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
