package auth

import (
	"sync"
	"time"
)

// RateLimiter is a fixed-window counter guarding the authentication-attempt
// endpoints (login, token refresh). It is an explicitly constructed
// component, not an ambient singleton, so tests can swap the clock and
// deployments can size it.
type RateLimiter struct {
	window   time.Duration
	max      int
	mu       sync.Mutex
	counters map[string]*windowCounter
	nowFunc  func() time.Time
}

type windowCounter struct {
	count    int
	windowAt time.Time
}

type RateLimiterOption func(*RateLimiter)

func WithLimiterNowFunc(now func() time.Time) RateLimiterOption {
	return func(l *RateLimiter) {
		l.nowFunc = now
	}
}

// NewRateLimiter creates a limiter allowing max attempts per window per
// client key. Defaults match the product policy: 10 attempts per 15 minutes.
func NewRateLimiter(window time.Duration, max int, options ...RateLimiterOption) *RateLimiter {
	if window <= 0 {
		window = 15 * time.Minute
	}
	if max <= 0 {
		max = 10
	}
	l := &RateLimiter{
		window:   window,
		max:      max,
		counters: make(map[string]*windowCounter),
		nowFunc:  time.Now,
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

// Allow reports whether another attempt from clientKey fits in the current
// window. The clientKey is typically the network address.
func (l *RateLimiter) Allow(clientKey string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	c, ok := l.counters[clientKey]
	if !ok || now.Sub(c.windowAt) >= l.window {
		l.counters[clientKey] = &windowCounter{count: 1, windowAt: now}
		return true
	}

	c.count++
	return c.count <= l.max
}

// Prune drops counters whose window has elapsed.
func (l *RateLimiter) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	for key, c := range l.counters {
		if now.Sub(c.windowAt) >= l.window {
			delete(l.counters, key)
		}
	}
}
