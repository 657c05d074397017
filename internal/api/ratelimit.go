package api

import (
	"log/slog"
	"net/http"

	"encoding/json/v2"

	domainerrors "github.com/thebooksapp/thebooks-server/internal/errors"
	"github.com/thebooksapp/thebooks-server/internal/ratelimit"
)

// throttledPaths are the endpoints subject to per-client attempt limiting.
// Credential guessing targets these two; everything else rides on the access
// token and does not need it.
var throttledPaths = map[string]bool{
	"/api/v1/auth/login":          true,
	"/api/v1/auth/reset-password": true,
}

// loginRateLimitMiddleware throttles credential endpoints by client IP.
// Returns 429 Too Many Requests in the standard envelope when exhausted.
func loginRateLimitMiddleware(limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || !throttledPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			key := getClientIP(r)
			if !limiter.Allow(key) {
				if logger != nil {
					logger.Warn("rate limit exceeded", "ip", key, "path", r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.MarshalWrite(w, Envelope{
					Errors: map[string]string{"rate_limit": "too many attempts, try again later"},
					Status: domainerrors.DomainFailure,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers before falling back to RemoteAddr.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Take first IP in the chain.
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr (strip port).
	ip := r.RemoteAddr
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == ':' {
			return ip[:i]
		}
	}
	return ip
}
