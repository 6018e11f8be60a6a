package worker

import (
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Allow(t *testing.T) {
	// 1 rps, burst 1
	limiter := NewLimiter(1, 1)
	client := "192.168.1.10"

	if !limiter.Allow(client) {
		t.Fatal("first request should pass")
	}

	// Burst 1 means the token is consumed
	if limiter.Allow(client) {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}

	// Different client should be allowed
	if !limiter.Allow("192.168.1.11") {
		t.Errorf("expected allow for other client")
	}
	if limiter.Len() != 2 {
		t.Errorf("expected 2 tracked clients, got %d", limiter.Len())
	}
}

func TestLimiter_Prune(t *testing.T) {
	limiter := NewLimiter(10, 1)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.Allow("old")
	now = now.Add(10 * time.Minute)
	limiter.Allow("fresh")

	if removed := limiter.Prune(5 * time.Minute); removed != 1 {
		t.Errorf("expected 1 pruned limiter, got %d", removed)
	}
	if limiter.Len() != 1 {
		t.Errorf("expected 1 remaining limiter, got %d", limiter.Len())
	}
}
