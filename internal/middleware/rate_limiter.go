package middleware

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/reelroom/backend/internal/config"
	"github.com/reelroom/backend/internal/metrics"
)

const defaultVisitorTTL = 5 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per key. Keys are "scope:client" so
// that the auth, watchlist and chat endpoints draw from separate budgets.
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	lastGC   time.Time
	now      func() time.Time
}

// NewIPRateLimiter allows cfg.Requests events per cfg.Window for each key,
// plus cfg.Burst. Idle keys are forgotten after five minutes or one window,
// whichever is longer.
func NewIPRateLimiter(cfg config.RateLimitConfig) *IPRateLimiter {
	requests, window, burst := cfg.Requests, cfg.Window, cfg.Burst
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Second
	}
	if burst <= 0 {
		burst = 1
	}

	return &IPRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(window / time.Duration(requests)),
		burst:    burst,
		ttl:      max(defaultVisitorTTL, window),
		now:      time.Now,
	}
}

// Allow consumes one token for key and reports whether the caller may proceed.
func (l *IPRateLimiter) Allow(key string) bool {
	if key == "" {
		key = "unknown"
	}

	l.mu.Lock()
	now := l.now()
	v := l.visitorLocked(key, now)
	if now.Sub(l.lastGC) > l.ttl {
		l.gcLocked(now)
	}
	allowed := v.limiter.AllowN(now, 1)
	l.mu.Unlock()

	if !allowed {
		scope, _, found := strings.Cut(key, ":")
		if !found {
			scope = "default"
		}
		metrics.RateLimitRejections.WithLabelValues(scope).Inc()
	}
	return allowed
}

// Len reports how many keys are currently tracked.
func (l *IPRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

func (l *IPRateLimiter) visitorLocked(key string, now time.Time) *visitor {
	if v, ok := l.visitors[key]; ok {
		v.lastSeen = now
		return v
	}
	v := &visitor{limiter: rate.NewLimiter(l.limit, l.burst), lastSeen: now}
	l.visitors[key] = v
	return v
}

func (l *IPRateLimiter) gcLocked(now time.Time) {
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.ttl {
			delete(l.visitors, key)
		}
	}
	l.lastGC = now
}
