package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type recordingLimiter struct {
	keys []string
}

func (l *recordingLimiter) Allow(key string) bool {
	l.keys = append(l.keys, key)
	return true
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remoteAddr", nil, "10.0.0.1:5555", "10.0.0.1"},
		{"forwardedFirstHop", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.2"}, "10.0.0.1:5555", "203.0.113.9"},
		{"realIP", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.1:5555", "198.51.100.4"},
		{"bareRemote", nil, "unix", "unix"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			if got := clientIP(req); got != tc.want {
				t.Fatalf("expected %q got %q", tc.want, got)
			}
		})
	}
}

func TestCheckRateLimit(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/watchlist", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	limiter := &recordingLimiter{}
	if !checkRateLimit(req.Context(), httptest.NewRecorder(), req, limiter, "watchlist") {
		t.Fatal("expected request to be allowed")
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != "watchlist:10.0.0.1" {
		t.Fatalf("unexpected limiter keys %v", limiter.keys)
	}

	rec := httptest.NewRecorder()
	if checkRateLimit(req.Context(), rec, req, denyLimiter{}, "watchlist") {
		t.Fatal("expected request to be refused")
	}
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected 429 with Retry-After got %d %v", rec.Code, rec.Header())
	}

	if !checkRateLimit(req.Context(), httptest.NewRecorder(), req, nil, "watchlist") {
		t.Fatal("expected nil limiter to allow")
	}
}
