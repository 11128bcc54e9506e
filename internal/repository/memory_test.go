package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryRateLimiter(t *testing.T) {
	limiter := NewMemoryRateLimiter()
	ctx := context.Background()

	t.Run("RateLimit", func(t *testing.T) {
		userID := int64(456)
		window := 50 * time.Millisecond
		allowed, _ := limiter.CheckRateLimit(ctx, userID, 2, window)
		assert.True(t, allowed)
		allowed, _ = limiter.CheckRateLimit(ctx, userID, 2, window)
		assert.True(t, allowed)
		allowed, _ = limiter.CheckRateLimit(ctx, userID, 2, window)
		assert.False(t, allowed)

		// Other users are counted separately
		allowed, _ = limiter.CheckRateLimit(ctx, 457, 2, window)
		assert.True(t, allowed)

		// Wait for expiry
		time.Sleep(window + 20*time.Millisecond)
		allowed, _ = limiter.CheckRateLimit(ctx, userID, 2, window)
		assert.True(t, allowed)
	})

	t.Run("Prune", func(t *testing.T) {
		l := NewMemoryRateLimiter()
		l.CheckRateLimit(ctx, 1, 5, 10*time.Millisecond)
		l.CheckRateLimit(ctx, 2, 5, time.Hour)
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, 1, l.Prune())
	})

	t.Run("Concurrent", func(t *testing.T) {
		l := NewMemoryRateLimiter()
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			allowed int
		)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, _ := l.CheckRateLimit(ctx, 9, 10, time.Hour)
				if ok {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 10, allowed)
	})
}
