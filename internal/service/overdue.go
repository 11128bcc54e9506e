package service

import (
	"context"
	"time"

	"library/internal/models"

	"github.com/rs/zerolog"
)

type overdueReporter interface {
	CheckOverdue(ctx context.Context) ([]*models.Borrowing, error)
}

// OverdueChecker runs CheckOverdue on a fixed interval until the context is canceled.
type OverdueChecker struct {
	borrowings overdueReporter
	interval   time.Duration
	logger     *zerolog.Logger
}

func NewOverdueChecker(borrowings overdueReporter, interval time.Duration, logger *zerolog.Logger) *OverdueChecker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &OverdueChecker{borrowings: borrowings, interval: interval, logger: logger}
}

func (c *OverdueChecker) Start(ctx context.Context) {
	c.logger.Info().Dur("interval", c.interval).Msg("Overdue checker started")

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("Overdue checker stopped")
			return
		case <-ticker.C:
			if _, err := c.borrowings.CheckOverdue(ctx); err != nil {
				c.logger.Error().Err(err).Msg("Overdue check failed")
			}
		}
	}
}
