package bot

import (
	"sync"
	"time"
)

const (
	DefaultRateLimitCommands = 5
	DefaultRateLimitWindow   = 60 * time.Second
)

// RateLimiter allows at most max commands per user within a sliding
// window.
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	max      int
	window   time.Duration
	now      func() time.Time
}

func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		max:      max,
		window:   window,
		now:      time.Now,
	}
}

func (r *RateLimiter) Allow(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	pruned := r.pruneLocked(userID, now)

	if len(pruned) >= r.max {
		return false
	}

	r.requests[userID] = append(pruned, now)
	return true
}

// Sweep drops users with no commands inside the window.
func (r *RateLimiter) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for userID := range r.requests {
		if len(r.pruneLocked(userID, now)) == 0 {
			delete(r.requests, userID)
			removed++
		}
	}
	return removed
}

func (r *RateLimiter) pruneLocked(userID string, now time.Time) []time.Time {
	cutoff := now.Add(-r.window)
	timestamps := r.requests[userID]
	pruned := timestamps[:0]
	for _, t := range timestamps {
		if t.After(cutoff) {
			pruned = append(pruned, t)
		}
	}
	r.requests[userID] = pruned
	return pruned
}
