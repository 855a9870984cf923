package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/princekumarofficial/portfolio-engagement/internal/ratelimit"
	"github.com/princekumarofficial/portfolio-engagement/internal/utils/response"
)

// RateLimit wraps a handler with a per-client-IP limiter. Routes with a
// single operation class use this; the engagement dispatcher, whose class
// depends on the decoded action, calls its limiters directly instead.
func RateLimit(limiter ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), ClientIP(r))
			if err != nil {
				response.WriteJSON(w, http.StatusInternalServerError, response.Error("Rate limit check failed"))
				return
			}

			if !allowed {
				response.WriteJSON(w, http.StatusTooManyRequests, response.Error("Too many requests"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP resolves the caller's address, trusting the first entry of
// X-Forwarded-For when present (the service sits behind a proxy in
// production).
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
