package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryRateLimiter keeps fixed-window counters per chat user in process memory.
type MemoryRateLimiter struct {
	mu         sync.Mutex
	rateLimits map[int64]*rateLimitEntry
}

func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{
		rateLimits: make(map[int64]*rateLimitEntry),
	}
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryRateLimiter) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.rateLimits[userID]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.rateLimits[userID] = entry
	}
	entry.count++

	return entry.count <= limit, nil
}

// Prune drops expired windows.
func (r *MemoryRateLimiter) Prune() int {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, entry := range r.rateLimits {
		if now.After(entry.expiresAt) {
			delete(r.rateLimits, id)
			removed++
		}
	}
	return removed
}
