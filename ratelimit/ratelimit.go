// Package ratelimit provides per-user admission control for UI-triggered
// actions. Two gates exist: Limiter bounds the rate of component clicks
// within a fixed window, and Cooldown bounds how often a user may invoke
// a top-level command. Both are process-wide in-memory state; a
// distributed deployment would swap the backing maps for a shared store.
package ratelimit

import (
	"sync"
	"time"
)

const recordExpiry = 1 * time.Hour

// Limiter enforces a fixed-window limit of max actions per window per
// user. CheckAndRecord is atomic with respect to a single user id, so
// concurrent retries of the same click cannot slip past the limit.
type Limiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	now     func() time.Time
	records map[string]*windowRecord
}

type windowRecord struct {
	windowStart time.Time
	count       int
}

// NewLimiter creates a limiter allowing max actions per window.
func NewLimiter(max int, window time.Duration) *Limiter {
	return &Limiter{
		max:     max,
		window:  window,
		now:     time.Now,
		records: make(map[string]*windowRecord),
	}
}

// CheckAndRecord evaluates and records one action for the user in a
// single atomic step. It returns true when the user is blocked; the
// action that triggered the block is not counted against the next window.
func (l *Limiter) CheckAndRecord(userID string) (blocked bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	rec, ok := l.records[userID]
	if !ok || now.Sub(rec.windowStart) >= l.window {
		l.records[userID] = &windowRecord{windowStart: now, count: 1}
		return false
	}
	if rec.count >= l.max {
		return true
	}
	rec.count++
	return false
}

// Len reports the number of tracked users, for operational status.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Sweep removes records whose window ended long ago. Call periodically
// from a background goroutine.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for id, rec := range l.records {
		if now.Sub(rec.windowStart) > recordExpiry {
			delete(l.records, id)
		}
	}
}

// Cooldown enforces one command invocation per user per fixed cooldown
// period. State is never explicitly reset; each successful invocation
// supersedes the previous timestamp.
type Cooldown struct {
	mu     sync.Mutex
	period time.Duration
	now    func() time.Time
	last   map[string]time.Time
}

// NewCooldown creates a per-user command cooldown.
func NewCooldown(period time.Duration) *Cooldown {
	return &Cooldown{
		period: period,
		now:    time.Now,
		last:   make(map[string]time.Time),
	}
}

// CheckAndRecord returns true when the user invoked a command within the
// cooldown period. Otherwise it records the invocation and returns false.
func (c *Cooldown) CheckAndRecord(userID string) (blocked bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if last, ok := c.last[userID]; ok && now.Sub(last) < c.period {
		return true
	}
	c.last[userID] = now
	return false
}

// Sweep removes stale cooldown timestamps.
func (c *Cooldown) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for id, last := range c.last {
		if now.Sub(last) > recordExpiry {
			delete(c.last, id)
		}
	}
}
