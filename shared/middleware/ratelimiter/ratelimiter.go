// Package ratelimiter keeps one token bucket per client key.
package ratelimiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// UserRateLimiter manages rate limiting for multiple clients.
// Buckets idle for longer than expirationTime are dropped by the janitor.
type UserRateLimiter struct {
	mu             sync.Mutex
	limiters       map[string]*entry
	rate           rate.Limit
	burst          int
	expirationTime time.Duration
	now            func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a limiter allowing perSecond requests with bursts of up to burst per key.
func New(perSecond float64, burst int, expirationTime time.Duration) *UserRateLimiter {
	url := &UserRateLimiter{
		limiters:       make(map[string]*entry),
		rate:           rate.Limit(perSecond),
		burst:          burst,
		expirationTime: expirationTime,
		now:            time.Now,
		stop:           make(chan struct{}),
	}
	go url.janitor()
	return url
}

// Allow checks if a request should be allowed for a given key.
func (url *UserRateLimiter) Allow(key string) bool {
	url.mu.Lock()
	now := url.now()
	e, ok := url.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(url.rate, url.burst)}
		url.limiters[key] = e
	}
	e.lastSeen = now
	url.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

// Len reports how many keys are currently tracked.
func (url *UserRateLimiter) Len() int {
	url.mu.Lock()
	defer url.mu.Unlock()
	return len(url.limiters)
}

// Stop ends the janitor. Allow keeps working afterwards.
func (url *UserRateLimiter) Stop() {
	url.stopOnce.Do(func() { close(url.stop) })
}

func (url *UserRateLimiter) janitor() {
	interval := url.expirationTime
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			url.evictIdle()
		case <-url.stop:
			return
		}
	}
}

func (url *UserRateLimiter) evictIdle() {
	url.mu.Lock()
	defer url.mu.Unlock()
	cutoff := url.now().Add(-url.expirationTime)
	for key, e := range url.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(url.limiters, key)
		}
	}
}
