// Copyright 2025 Minseo Park
//
// Token bucket rate limiter for the HTTP transport

package transport

import (
	"net/http"
	"sync"
	"time"
)

// RateLimiter is a token bucket limiter: tokens refill continuously at the
// configured rate and each request consumes one. The burst capacity is twice
// the rate, with a floor of one. A nil *RateLimiter disables limiting.
type RateLimiter struct {
	now    func() time.Time
	last   time.Time
	rate   float64
	burst  float64
	tokens float64
	mu     sync.Mutex
}

// NewRateLimiter creates a limiter allowing requestsPerSecond sustained
// throughput. A non-positive rate returns nil, which disables limiting.
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	return NewRateLimiterWithClock(requestsPerSecond, time.Now)
}

// NewRateLimiterWithClock is NewRateLimiter with an injectable clock, used
// by tests to control time.
func NewRateLimiterWithClock(requestsPerSecond float64, now func() time.Time) *RateLimiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	burst := requestsPerSecond * 2
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		now:    now,
		last:   now(),
		rate:   requestsPerSecond,
		burst:  burst,
		tokens: burst,
	}
}

// Allow consumes a token if one is available and reports whether the
// request may proceed.
func (r *RateLimiter) Allow() bool {
	if r == nil {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.tokens += now.Sub(r.last).Seconds() * r.rate
	if r.tokens > r.burst {
		r.tokens = r.burst
	}
	r.last = now

	if r.tokens < 1 {
		return false
	}
	r.tokens--
	return true
}

// Tokens reports the tokens currently available, or -1 when disabled.
func (r *RateLimiter) Tokens() float64 {
	if r == nil {
		return -1
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tokens
}

// RateLimitMiddleware rejects rate-limited requests with 429. The /health
// and /metrics endpoints bypass the limiter so probes and scrapes keep
// working while the API is saturated.
func RateLimitMiddleware(limiter *RateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		if !limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
