package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"library/internal/bot"
	"library/internal/database"
	"library/internal/logging"
	"library/internal/metrics"
	"library/internal/service"

	"github.com/spf13/cobra"
)

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the chat bot, notification worker, overdue checker, backups and metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			return runServe(ctx, a)
		},
	}
}

func runServe(ctx context.Context, a *app) error {
	logger := logging.Component(a.logger, "main")
	var wg sync.WaitGroup
	goRun := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	if a.cfg.BooksFile != "" {
		if _, err := importBooks(ctx, a, a.cfg.BooksFile); err != nil {
			logger.Error().Err(err).Str("path", a.cfg.BooksFile).Msg("Failed to import books")
		}
	}

	if a.worker != nil {
		goRun(func() { a.worker.Start(ctx) })
	}

	checker := service.NewOverdueChecker(a.borrowings, a.cfg.Borrowing.OverdueInterval(), logging.Component(a.logger, "overdue"))
	goRun(func() { checker.Start(ctx) })

	if a.cfg.Backup.Enabled {
		backups := database.NewBackupService(a.db, a.cfg.Backup, logging.Component(a.logger, "backup"))
		goRun(func() { backups.Start(ctx) })
	}

	var metricsServer *metrics.Server
	if a.cfg.Monitoring.PrometheusEnabled {
		metricsServer = metrics.NewServer(a.cfg.Monitoring.PrometheusPort, a.registry, a.health, logging.Component(a.logger, "metrics"))
		goRun(func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error().Err(err).Msg("Metrics server error")
			}
		})
	}

	var telegramBot *bot.Bot
	if a.telegram != nil {
		telegramBot = bot.NewBot(
			a.telegram, a.cfg, a.rateLimiter(),
			a.borrowings, a.books, a.payments, a.users,
			a.metrics, logging.Component(a.logger, "bot"),
		)
		logger.Info().Msg("Bot started")
		goRun(func() { telegramBot.Start(ctx) })
	}

	<-ctx.Done()
	logger.Info().Msg("Shutting down...")

	if telegramBot != nil {
		telegramBot.Stop()
	}
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Metrics server shutdown failed")
		}
		cancel()
	}

	wg.Wait()
	logger.Info().Msg("Shutdown complete.")
	return nil
}
