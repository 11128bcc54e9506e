package main

import (
	"context"
	"errors"
	"io"

	"library/internal/bot"
	"library/internal/config"
	"library/internal/database"
	"library/internal/domain"
	"library/internal/logging"
	"library/internal/metrics"
	"library/internal/payments"
	"library/internal/repository"
	"library/internal/service"
	"library/internal/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// app holds the wired components shared by all subcommands.
type app struct {
	cfg      *config.Config
	logger   *zerolog.Logger
	db       *database.DB
	redis    *redis.Client
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	gateway  domain.PaymentGateway
	telegram *service.TelegramService
	worker   *worker.NotificationWorker

	borrowings *service.BorrowingService
	books      *service.BookService
	payments   *service.PaymentService
	users      *service.UserService

	closers []io.Closer
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: baseLogger}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	a.db, err = database.Open(cfg.Database, logging.Component(baseLogger, "database"))
	if err != nil {
		a.Close()
		return nil, err
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.registry)

	if cfg.Redis.Address != "" {
		a.redis = repository.NewRedisClient(cfg.Redis)
		if errPing := repository.Ping(ctx, a.redis); errPing != nil {
			baseLogger.Warn().Err(errPing).Msg("Redis unavailable, using in-memory fallbacks")
		}
	}

	if cfg.Payments.SecretKey != "" {
		gw, err := payments.NewStripeGateway(cfg.Payments, nil, logging.Component(baseLogger, "payments"))
		if err != nil {
			a.Close()
			return nil, err
		}
		a.gateway = gw
	} else {
		baseLogger.Warn().Msg("Payments secret key is empty, borrowings will be created without payment sessions")
	}

	var notifier domain.Notifier
	if cfg.Telegram.Enabled {
		wrapper, err := bot.NewBotWrapper(cfg.Telegram.BotToken, cfg.Telegram.Debug, cfg.Telegram.Timeout())
		if err != nil {
			a.Close()
			return nil, err
		}
		a.telegram = service.NewTelegramService(wrapper)

		if cfg.Telegram.NotificationChatID != 0 {
			a.worker = worker.NewNotificationWorker(a.db, a.telegram, a.redis, worker.Options{
				ChatID:     cfg.Telegram.NotificationChatID,
				QueueSize:  cfg.Notifications.QueueSize,
				Retry:      worker.RetryPolicy{MaxRetries: cfg.Notifications.MaxRetries},
				RatePerSec: cfg.Notifications.RatePerSec,
				Burst:      cfg.Notifications.Burst,
				Metrics:    a.metrics,
			}, logging.Component(baseLogger, "notifications"))
			notifier = a.worker
		}
	}
	if notifier == nil {
		baseLogger.Warn().Msg("Notification chat is not configured, notifications are disabled")
	}

	a.borrowings = service.NewBorrowingService(a.db, a.gateway, notifier, service.BorrowingOptions{
		Payments:       cfg.Payments,
		FineMultiplier: cfg.Borrowing.FineMultiplier,
		Metrics:        a.metrics,
	}, logging.Component(baseLogger, "borrowings"))
	a.books = service.NewBookService(a.db, logging.Component(baseLogger, "books"))
	a.payments = service.NewPaymentService(a.db, a.gateway, logging.Component(baseLogger, "payments"))
	a.users = service.NewUserService(a.db, cfg, logging.Component(baseLogger, "users"))

	return a, nil
}

func (a *app) health(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return err
	}
	if a.redis != nil {
		return repository.Ping(ctx, a.redis)
	}
	return nil
}

func (a *app) rateLimiter() domain.RateLimiter {
	fallback := repository.NewMemoryRateLimiter()
	if a.redis == nil {
		return fallback
	}
	return repository.NewFailoverRateLimiter(repository.NewRedisRateLimiter(a.redis), fallback, logging.Component(a.logger, "ratelimit"))
}

func (a *app) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, repository.Close(a.redis))
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
