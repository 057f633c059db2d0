package ai

import (
	"sync"
	"time"
)

// rateLimiter enforces a fixed number of requests per sliding window for
// each provider, over an in-process timestamp log. State is process-local:
// running more than one instance multiplies the effective limit.
type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	history map[string][]time.Time
	now     func() time.Time // injectable for tests
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		window:  window,
		history: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow reports whether a request to the provider may proceed now. When
// denied it returns the duration until the oldest in-window request
// expires (always >= 0). An allowed call is recorded immediately.
func (r *rateLimiter) Allow(provider string) (bool, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cutoff := now.Add(-r.window)

	kept := r.history[provider][:0]
	for _, ts := range r.history[provider] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	r.history[provider] = kept

	if len(kept) >= r.limit {
		retryAfter := kept[0].Add(r.window).Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, retryAfter
	}

	r.history[provider] = append(kept, now)
	return true, 0
}

// Prune drops expired timestamps for every provider
func (r *rateLimiter) Prune() {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.window)
	for provider, entries := range r.history {
		kept := entries[:0]
		for _, ts := range entries {
			if ts.After(cutoff) {
				kept = append(kept, ts)
			}
		}
		if len(kept) == 0 {
			delete(r.history, provider)
		} else {
			r.history[provider] = kept
		}
	}
}
