package handlers

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// RateLimiter is the minimal interface required to guard write endpoints.
type RateLimiter interface {
	Allow(key string) bool
}

// checkRateLimit spends one token from the caller's budget for scope and
// answers 429 when it is exhausted. A nil limiter allows everything.
func checkRateLimit(ctx context.Context, w http.ResponseWriter, r *http.Request, limiter RateLimiter, scope string) bool {
	if limiter == nil || limiter.Allow(scope+":"+clientIP(r)) {
		return true
	}
	w.Header().Set("Retry-After", "1")
	respondError(ctx, w, http.StatusTooManyRequests, "too many requests")
	return false
}

// clientIP prefers the first hop of X-Forwarded-For, then X-Real-IP, then
// the connection's remote address.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}

	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	return addr
}
