package bot

import (
	"sync"
	"time"
)

// rateLimiter is a per-chat sliding window limiter. The clock is injectable
// for tests.
type rateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	clock  func() time.Time
	hits   map[int64][]time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:  limit,
		window: window,
		clock:  time.Now,
		hits:   make(map[int64][]time.Time),
	}
}

func (r *rateLimiter) allow(chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock()
	kept := r.hits[chatID][:0]
	for _, ts := range r.hits[chatID] {
		if now.Sub(ts) < r.window {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= r.limit {
		r.hits[chatID] = kept
		return false
	}
	r.hits[chatID] = append(kept, now)
	return true
}
