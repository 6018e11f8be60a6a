package worker

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter implements per-client rate limiting. Keys are opaque, typically a
// client IP address.
type Limiter struct {
	limiters     map[string]*clientLimiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
	now          func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimiter creates a new rate limiter
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	return &Limiter{
		limiters:     make(map[string]*clientLimiter),
		defaultRate:  rate.Limit(requestsPerSecond),
		defaultBurst: burst,
		now:          time.Now,
	}
}

// Allow checks if a request is allowed without waiting
func (l *Limiter) Allow(key string) bool {
	return l.getLimiter(key).Allow()
}

// getLimiter returns the rate limiter for a key, creating it on first use
func (l *Limiter) getLimiter(key string) *rate.Limiter {
	now := l.now()

	l.mu.RLock()
	entry, exists := l.limiters[key]
	l.mu.RUnlock()

	if exists {
		l.mu.Lock()
		entry.lastSeen = now
		l.mu.Unlock()
		return entry.limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if entry, exists := l.limiters[key]; exists {
		entry.lastSeen = now
		return entry.limiter
	}

	entry = &clientLimiter{
		limiter:  rate.NewLimiter(l.defaultRate, l.defaultBurst),
		lastSeen: now,
	}
	l.limiters[key] = entry

	return entry.limiter
}

// Prune drops limiters not used for longer than idle and returns how many were removed
func (l *Limiter) Prune(idle time.Duration) int {
	cutoff := l.now().Add(-idle)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys
func (l *Limiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.limiters)
}
