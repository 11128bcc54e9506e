package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"library/internal/database"
	"library/internal/logging"
	"library/internal/service"

	"github.com/spf13/cobra"
)

func checkOverdueCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check-overdue",
		Short: "Report overdue borrowings once, for external schedulers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			overdue, err := a.borrowings.CheckOverdue(ctx)
			if err != nil {
				return err
			}
			// Уведомления уходят через outbox, доставляем их до выхода
			if a.worker != nil {
				a.worker.Drain(ctx)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d overdue borrowings\n", len(overdue))
			for _, b := range overdue {
				fmt.Fprintln(cmd.OutOrStdout(), service.OverdueMessage(b))
			}
			return nil
		},
	}
}

func importBooksCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import-books [file]",
		Short: "Upsert the catalog from a YAML file; inventory of existing books is kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := importBooks(ctx, a, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d books\n", n)
			return nil
		},
	}
}

func importBooks(ctx context.Context, a *app, path string) (int, error) {
	books, err := service.LoadBooksFile(path)
	if err != nil {
		return 0, err
	}
	return a.books.ImportBooks(ctx, books)
}

func backupCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Create a backup of the sqlite database now and prune old ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			backups := database.NewBackupService(a.db, a.cfg.Backup, logging.Component(a.logger, "backup"))
			path, err := backups.PerformBackup(ctx)
			if err != nil {
				return err
			}
			removed, err := backups.CleanupOldBackups()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s, %d old snapshot(s) removed\n", path, removed)
			return nil
		},
	}
}
