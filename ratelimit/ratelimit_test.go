package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_BlocksAtThreshold(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(1, time.Minute)
	l.now = func() time.Time { return now }

	assert.False(t, l.CheckAndRecord("user-1"), "first action should pass")
	assert.True(t, l.CheckAndRecord("user-1"), "second action in window should block")
}

func TestLimiter_WindowRollover(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	require.False(t, l.CheckAndRecord("user-1"))
	require.False(t, l.CheckAndRecord("user-1"))
	require.True(t, l.CheckAndRecord("user-1"))

	now = now.Add(61 * time.Second)
	assert.False(t, l.CheckAndRecord("user-1"), "new window should admit again")
}

func TestLimiter_IsolatesUsers(t *testing.T) {
	l := NewLimiter(1, time.Minute)

	require.False(t, l.CheckAndRecord("user-1"))
	require.True(t, l.CheckAndRecord("user-1"))

	assert.False(t, l.CheckAndRecord("user-2"), "one user's limit should not affect another")
}

func TestLimiter_ConcurrentClicksNoLostUpdates(t *testing.T) {
	l := NewLimiter(5, time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !l.CheckAndRecord("user-1") {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, admitted, "exactly max actions should be admitted per window")
}

func TestLimiter_Sweep(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(1, time.Minute)
	l.now = func() time.Time { return now }

	l.CheckAndRecord("user-1")
	require.Equal(t, 1, l.Len())

	now = now.Add(2 * time.Hour)
	l.Sweep()
	assert.Equal(t, 0, l.Len())
}

func TestCooldown_BlocksWithinPeriod(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewCooldown(30 * time.Second)
	c.now = func() time.Time { return now }

	assert.False(t, c.CheckAndRecord("user-1"))
	assert.True(t, c.CheckAndRecord("user-1"))

	now = now.Add(31 * time.Second)
	assert.False(t, c.CheckAndRecord("user-1"))
}

func TestCooldown_SupersededByNextTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewCooldown(30 * time.Second)
	c.now = func() time.Time { return now }

	require.False(t, c.CheckAndRecord("user-1"))

	// A later successful invocation restarts the cooldown from its own
	// timestamp, not the original one.
	now = now.Add(31 * time.Second)
	require.False(t, c.CheckAndRecord("user-1"))

	now = now.Add(20 * time.Second)
	assert.True(t, c.CheckAndRecord("user-1"))
}
