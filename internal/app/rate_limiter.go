package app

import (
	"sync"
	"time"

	"github.com/mbellot/parley/internal/domain"
)

// RateLimiter caps message sends per user over a sliding window. Idle users
// are swept out of the history map once their whole window has gone stale, so
// the map tracks recently active senders, not every user ever seen.
type RateLimiter struct {
	mu        sync.Mutex
	history   map[domain.UserID][]time.Time
	limit     int
	interval  time.Duration
	lastSweep time.Time
}

func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		history:   make(map[domain.UserID][]time.Time),
		limit:     limit,
		interval:  interval,
		lastSweep: time.Now(),
	}
}

func (rl *RateLimiter) Allow(uid domain.UserID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.interval)

	if now.Sub(rl.lastSweep) > rl.interval {
		rl.sweep(windowStart)
		rl.lastSweep = now
	}

	attempts := rl.history[uid]
	fresh := make([]time.Time, 0, len(attempts))
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[uid] = fresh
		return false
	}

	fresh = append(fresh, now)
	rl.history[uid] = fresh
	return true
}

// sweep drops users whose every recorded attempt predates the window. Caller
// holds the mutex.
func (rl *RateLimiter) sweep(windowStart time.Time) {
	for uid, attempts := range rl.history {
		stale := true
		for _, t := range attempts {
			if t.After(windowStart) {
				stale = false
				break
			}
		}
		if stale {
			delete(rl.history, uid)
		}
	}
}
