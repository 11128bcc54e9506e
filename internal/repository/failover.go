package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"library/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverRateLimiter uses the primary limiter until it fails, then the fallback,
// probing the primary again once per recoveryInterval.
type FailoverRateLimiter struct {
	primary  domain.RateLimiter
	fallback domain.RateLimiter
	logger   *zerolog.Logger
	isDown   atomic.Bool

	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverRateLimiter(primary, fallback domain.RateLimiter, logger *zerolog.Logger) *FailoverRateLimiter {
	return &FailoverRateLimiter{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverRateLimiter) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary rate limiter failed, falling back to memory")
	r.isDown.Store(true)
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
}

func (r *FailoverRateLimiter) shouldProbe() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastCheck) <= recoveryInterval {
		return false
	}
	r.lastCheck = time.Now()
	return true
}

func (r *FailoverRateLimiter) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, userID, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.markDown(err)
	} else if r.shouldProbe() {
		allowed, err := r.primary.CheckRateLimit(ctx, userID, limit, window)
		if err == nil {
			r.isDown.Store(false)
			r.logger.Info().Msg("Primary rate limiter recovered")
			return allowed, nil
		}
	}

	return r.fallback.CheckRateLimit(ctx, userID, limit, window)
}
