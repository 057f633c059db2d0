package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	rl := newRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		allowed, _ := rl.Allow("gemini")
		assert.True(t, allowed, "request %d within the limit", i+1)
	}

	allowed, retryAfter := rl.Allow("gemini")
	assert.False(t, allowed)
	assert.GreaterOrEqual(t, retryAfter, time.Duration(0))
	assert.LessOrEqual(t, retryAfter, time.Minute)
}

func TestRateLimiterPerProvider(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)

	allowed, _ := rl.Allow("gemini")
	assert.True(t, allowed)
	allowed, _ = rl.Allow("gemini")
	assert.False(t, allowed)

	allowed, _ = rl.Allow("openai")
	assert.True(t, allowed, "other providers keep their own window")
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := newRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return current }

	allowed, _ := rl.Allow("gemini")
	assert.True(t, allowed)
	allowed, _ = rl.Allow("gemini")
	assert.True(t, allowed)

	allowed, retryAfter := rl.Allow("gemini")
	assert.False(t, allowed)
	assert.Equal(t, time.Minute, retryAfter)

	// halfway through the window, the oldest entry still counts
	current = current.Add(30 * time.Second)
	allowed, retryAfter = rl.Allow("gemini")
	assert.False(t, allowed)
	assert.Equal(t, 30*time.Second, retryAfter)

	// past the window, capacity returns
	current = current.Add(31 * time.Second)
	allowed, _ = rl.Allow("gemini")
	assert.True(t, allowed)
}

func TestRateLimiterPrune(t *testing.T) {
	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := newRateLimiter(5, time.Minute)
	rl.now = func() time.Time { return current }

	rl.Allow("gemini")
	rl.Allow("openai")

	current = current.Add(2 * time.Minute)
	rl.Prune()

	assert.Empty(t, rl.history, "expired providers are dropped entirely")
}
