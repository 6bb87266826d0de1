// Copyright 2025 Minseo Park
//
// Rate limiter unit tests

package transport

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterDisabled(t *testing.T) {
	var limiter *RateLimiter

	if !limiter.Allow() {
		t.Error("nil limiter should always allow")
	}
	if limiter.Tokens() != -1 {
		t.Errorf("Tokens() = %v, want -1", limiter.Tokens())
	}
	if NewRateLimiter(0) != nil {
		t.Error("NewRateLimiter(0) should return nil")
	}
	if NewRateLimiter(-1) != nil {
		t.Error("NewRateLimiter(-1) should return nil")
	}
}

func TestRateLimiterBurstThenReject(t *testing.T) {
	now := time.Now()
	limiter := NewRateLimiterWithClock(2, func() time.Time { return now })

	// Burst capacity is 2x rate = 4 tokens.
	for i := 0; i < 4; i++ {
		if !limiter.Allow() {
			t.Fatalf("request %d rejected within burst", i)
		}
	}
	if limiter.Allow() {
		t.Error("request allowed with empty bucket")
	}
}

func TestRateLimiterRefill(t *testing.T) {
	now := time.Now()
	limiter := NewRateLimiterWithClock(2, func() time.Time { return now })

	for limiter.Allow() {
	}

	// One second at 2 rps refills two tokens.
	now = now.Add(time.Second)
	if !limiter.Allow() {
		t.Error("first refilled request rejected")
	}
	if !limiter.Allow() {
		t.Error("second refilled request rejected")
	}
	if limiter.Allow() {
		t.Error("third request allowed beyond refill")
	}
}

func TestRateLimiterBurstFloor(t *testing.T) {
	now := time.Now()
	limiter := NewRateLimiterWithClock(0.1, func() time.Time { return now })

	if !limiter.Allow() {
		t.Error("low-rate limiter must allow at least one request")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	now := time.Now()
	limiter := NewRateLimiterWithClock(0.5, func() time.Time { return now })
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimitMiddleware(limiter, next)

	get := func(path string) int {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code
	}

	if code := get("/rpc"); code != http.StatusOK {
		t.Errorf("first request = %d, want 200", code)
	}
	if code := get("/rpc"); code != http.StatusTooManyRequests {
		t.Errorf("second request = %d, want 429", code)
	}

	// Health and metrics bypass the limiter even when it is exhausted.
	if code := get("/health"); code != http.StatusOK {
		t.Errorf("/health = %d, want 200", code)
	}
	if code := get("/metrics"); code != http.StatusOK {
		t.Errorf("/metrics = %d, want 200", code)
	}
}

func TestRateLimitMiddlewarePassthrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimitMiddleware(nil, next)

	for i := 0; i < 100; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rpc", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d, want 200", i, rec.Code)
		}
	}
}
