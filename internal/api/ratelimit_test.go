package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestTokenBucketAllow(t *testing.T) {
	bucket := newTokenBucket(3, 1.0)

	// Should allow up to capacity
	for i := 0; i < 3; i++ {
		if !bucket.allow() {
			t.Errorf("request %d should be allowed", i+1)
		}
	}

	// Next request should be denied
	if bucket.allow() {
		t.Error("request beyond capacity should be denied")
	}
}

func TestTokenBucketRefill(t *testing.T) {
	// High refill rate so the bucket recovers within the test
	bucket := newTokenBucket(1, 100.0)

	if !bucket.allow() {
		t.Fatal("first request should be allowed")
	}

	if bucket.allow() {
		t.Fatal("second immediate request should be denied")
	}

	time.Sleep(50 * time.Millisecond)

	if !bucket.allow() {
		t.Error("request after refill should be allowed")
	}
}

func TestTokenBucketRemaining(t *testing.T) {
	bucket := newTokenBucket(5, 0.001)

	if got := bucket.remaining(); got != 5 {
		t.Errorf("expected 5 remaining, got %d", got)
	}

	bucket.allow()
	bucket.allow()

	if got := bucket.remaining(); got != 3 {
		t.Errorf("expected 3 remaining after two requests, got %d", got)
	}
}

func TestTokenBucketReset(t *testing.T) {
	bucket := newTokenBucket(2, 1.0)

	// Full bucket resets now
	reset := bucket.reset()
	if time.Until(reset) > 100*time.Millisecond {
		t.Errorf("full bucket should reset immediately, got %v", time.Until(reset))
	}

	bucket.allow()
	bucket.allow()

	// Drained bucket needs about 2 seconds at 1 token/s
	reset = bucket.reset()
	until := time.Until(reset)
	if until < 1*time.Second || until > 3*time.Second {
		t.Errorf("drained bucket reset should be about 2s away, got %v", until)
	}
}

func TestTokenBucketConcurrent(t *testing.T) {
	bucket := newTokenBucket(50, 0.0001)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if bucket.allow() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if allowed != 50 {
		t.Errorf("expected exactly 50 allowed requests, got %d", allowed)
	}
}

func TestRateLimiterPerIP(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		RequestsPerMinute: 60,
		BurstSize:         2,
	})

	// Each IP gets its own bucket
	if !rl.Allow("192.0.2.1") {
		t.Error("first request from IP 1 should be allowed")
	}
	if !rl.Allow("192.0.2.1") {
		t.Error("second request from IP 1 should be allowed")
	}
	if rl.Allow("192.0.2.1") {
		t.Error("third request from IP 1 should be denied")
	}

	// A different IP is unaffected
	if !rl.Allow("192.0.2.2") {
		t.Error("first request from IP 2 should be allowed")
	}
}

func TestRateLimiterRemaining(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		RequestsPerMinute: 60,
		BurstSize:         5,
	})

	if got := rl.Remaining("192.0.2.1"); got != 5 {
		t.Errorf("expected 5 remaining, got %d", got)
	}

	rl.Allow("192.0.2.1")

	if got := rl.Remaining("192.0.2.1"); got != 4 {
		t.Errorf("expected 4 remaining, got %d", got)
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		RequestsPerMinute: 60,
		BurstSize:         2,
	})

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// First request succeeds and carries rate limit headers
	req := httptest.NewRequest(http.MethodGet, "/tags", nil)
	req.RemoteAddr = "192.0.2.50:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if got := w.Header().Get("X-RateLimit-Limit"); got != "60" {
		t.Errorf("expected X-RateLimit-Limit 60, got %q", got)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "2" {
		t.Errorf("expected X-RateLimit-Remaining 2, got %q", got)
	}
	if w.Header().Get("X-RateLimit-Reset") == "" {
		t.Error("expected X-RateLimit-Reset header")
	}

	// Exhaust the burst
	req = httptest.NewRequest(http.MethodGet, "/tags", nil)
	req.RemoteAddr = "192.0.2.50:1234"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	// Third request is rejected with Retry-After
	req = httptest.NewRequest(http.MethodGet, "/tags", nil)
	req.RemoteAddr = "192.0.2.50:1234"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on 429")
	}

	var resp APIResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Success {
		t.Error("expected success false on rate limited response")
	}
	if resp.Error == nil || resp.Error.Code != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("expected RATE_LIMIT_EXCEEDED error, got %+v", resp.Error)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		realIP     string
		remoteAddr string
		expected   string
	}{
		{
			name:       "X-Forwarded-For single",
			forwarded:  "203.0.113.5",
			remoteAddr: "10.0.0.1:1234",
			expected:   "203.0.113.5",
		},
		{
			name:       "X-Forwarded-For chain takes leftmost",
			forwarded:  "203.0.113.5, 70.41.3.18, 150.172.238.178",
			remoteAddr: "10.0.0.1:1234",
			expected:   "203.0.113.5",
		},
		{
			name:       "invalid X-Forwarded-For falls through to X-Real-IP",
			forwarded:  "not-an-ip",
			realIP:     "198.51.100.7",
			remoteAddr: "10.0.0.1:1234",
			expected:   "198.51.100.7",
		},
		{
			name:       "X-Real-IP",
			realIP:     "198.51.100.7",
			remoteAddr: "10.0.0.1:1234",
			expected:   "198.51.100.7",
		},
		{
			name:       "RemoteAddr with port",
			remoteAddr: "192.0.2.10:54321",
			expected:   "192.0.2.10",
		},
		{
			name:       "RemoteAddr without port",
			remoteAddr: "192.0.2.10",
			expected:   "192.0.2.10",
		},
		{
			name:       "IPv6 forwarded",
			forwarded:  "2001:db8::1",
			remoteAddr: "10.0.0.1:1234",
			expected:   "2001:db8::1",
		},
		{
			name:       "unparseable RemoteAddr",
			remoteAddr: "garbage",
			expected:   "unknown",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			if tc.realIP != "" {
				req.Header.Set("X-Real-IP", tc.realIP)
			}
			req.RemoteAddr = tc.remoteAddr

			got := getClientIP(req)
			if got != tc.expected {
				t.Errorf("getClientIP() = %q, want %q", got, tc.expected)
			}
		})
	}
}

func TestIsValidIP(t *testing.T) {
	tests := []struct {
		ip       string
		expected bool
	}{
		{"192.0.2.1", true},
		{"2001:db8::1", true},
		{"::1", true},
		{"256.1.1.1", false},
		{"", false},
		{"example.com", false},
		{"192.0.2.1:80", false},
	}

	for _, tc := range tests {
		if got := isValidIP(tc.ip); got != tc.expected {
			t.Errorf("isValidIP(%q) = %v, want %v", tc.ip, got, tc.expected)
		}
	}
}
