package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockLimiter struct {
	mock.Mock
}

func (m *mockLimiter) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, userID, limit, window)
	return args.Bool(0), args.Error(1)
}

func TestFailoverRateLimiter(t *testing.T) {
	primary := new(mockLimiter)
	fallback := new(mockLimiter)
	logger := zerolog.New(io.Discard)
	limiter := NewFailoverRateLimiter(primary, fallback, &logger)
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		primary.On("CheckRateLimit", ctx, int64(1), 10, time.Minute).Return(true, nil).Once()

		allowed, err := limiter.CheckRateLimit(ctx, 1, 10, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		primary.On("CheckRateLimit", ctx, int64(2), 10, time.Minute).Return(false, errors.New("fail")).Once()
		fallback.On("CheckRateLimit", ctx, int64(2), 10, time.Minute).Return(true, nil).Once()

		allowed, err := limiter.CheckRateLimit(ctx, 2, 10, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		assert.True(t, limiter.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("AlreadyDown", func(t *testing.T) {
		limiter.isDown.Store(true)
		limiter.lastCheck = time.Now()
		fallback.On("CheckRateLimit", ctx, int64(66), 10, time.Minute).Return(false, nil).Once()

		allowed, err := limiter.CheckRateLimit(ctx, 66, 10, time.Minute)
		assert.NoError(t, err)
		assert.False(t, allowed)
		fallback.AssertExpectations(t)
		primary.AssertNotCalled(t, "CheckRateLimit", ctx, int64(66), 10, time.Minute)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		limiter.isDown.Store(true)
		limiter.lastCheck = time.Now().Add(-2 * time.Minute)
		primary.On("CheckRateLimit", ctx, int64(3), 10, time.Minute).Return(true, nil).Once()

		allowed, err := limiter.CheckRateLimit(ctx, 3, 10, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		assert.False(t, limiter.isDown.Load())
		primary.AssertExpectations(t)
	})

	t.Run("RecoveryAttemptFail", func(t *testing.T) {
		limiter.isDown.Store(true)
		limiter.lastCheck = time.Now().Add(-2 * time.Minute)
		primary.On("CheckRateLimit", ctx, int64(33), 10, time.Minute).Return(false, errors.New("still fail")).Once()
		fallback.On("CheckRateLimit", ctx, int64(33), 10, time.Minute).Return(true, nil).Once()

		allowed, err := limiter.CheckRateLimit(ctx, 33, 10, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		assert.True(t, limiter.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})
}
