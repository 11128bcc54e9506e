package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"library/internal/config"

	"github.com/rs/zerolog"
)

var ErrBackupUnsupported = errors.New("backups are only supported for sqlite file databases")

const (
	snapshotPrefix = "library-"
	snapshotSuffix = ".db"
	// UTC, millisecond resolution so that two manual runs in one second don't collide
	snapshotLayout = "20060102T150405.000"

	defaultBackupInterval = 24 * time.Hour
)

// BackupService writes VACUUM INTO snapshots of the sqlite catalog into
// StoragePath and drops snapshots older than RetentionDays.
type BackupService struct {
	db     *DB
	config config.BackupConfig
	logger *zerolog.Logger
	now    func() time.Time
}

func NewBackupService(db *DB, cfg config.BackupConfig, logger *zerolog.Logger) *BackupService {
	return &BackupService{
		db:     db,
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

func (s *BackupService) supported() bool {
	return s.db.Driver() == DriverSQLite && s.db.Path() != ":memory:"
}

func (s *BackupService) interval() time.Duration {
	if s.config.Schedule == "" {
		return defaultBackupInterval
	}
	d, err := time.ParseDuration(s.config.Schedule)
	if err != nil || d <= 0 {
		s.logger.Warn().Str("schedule", s.config.Schedule).Dur("fallback", defaultBackupInterval).Msg("Invalid backup schedule")
		return defaultBackupInterval
	}
	return d
}

// Start snapshots once right away, then on every tick, until ctx is done.
func (s *BackupService) Start(ctx context.Context) {
	if !s.config.Enabled {
		s.logger.Info().Msg("Backup service is disabled")
		return
	}
	if !s.supported() {
		s.logger.Info().Str("driver", s.db.Driver()).Str("path", s.db.Path()).Msg("Backups skipped for this database")
		return
	}

	interval := s.interval()
	s.logger.Info().Dur("interval", interval).Str("dir", s.config.StoragePath).Msg("Backup service started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.runOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *BackupService) runOnce(ctx context.Context) {
	if _, err := s.PerformBackup(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Backup failed")
		return
	}
	if _, err := s.CleanupOldBackups(); err != nil {
		s.logger.Error().Err(err).Msg("Backup cleanup failed")
	}
}

// PerformBackup writes a consistent snapshot and returns its path. A failed
// VACUUM INTO leaves no partial file behind.
func (s *BackupService) PerformBackup(ctx context.Context) (string, error) {
	if !s.supported() {
		return "", ErrBackupUnsupported
	}
	if err := os.MkdirAll(s.config.StoragePath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := snapshotPrefix + s.now().UTC().Format(snapshotLayout) + snapshotSuffix
	path := filepath.Join(s.config.StoragePath, name)

	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("snapshot %s already exists", path)
	}

	quoted := strings.ReplaceAll(path, "'", "''")
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", quoted)); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("vacuum into %s: %w", path, err)
	}

	s.logger.Info().Str("path", path).Msg("Database snapshot written")
	return path, nil
}

// snapshotTime extracts the timestamp from a snapshot file name. Files that
// don't follow the naming scheme are never touched.
func snapshotTime(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, snapshotPrefix), snapshotSuffix)
	t, err := time.Parse(snapshotLayout, stamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// CleanupOldBackups removes snapshots older than RetentionDays and returns how
// many were removed. Zero retention keeps everything.
func (s *BackupService) CleanupOldBackups() (int, error) {
	if s.config.RetentionDays <= 0 {
		return 0, nil
	}

	entries, err := os.ReadDir(s.config.StoragePath)
	if err != nil {
		return 0, fmt.Errorf("failed to read backup directory: %w", err)
	}

	cutoff := s.now().UTC().AddDate(0, 0, -s.config.RetentionDays)
	removed := 0
	var errs []error
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		taken, ok := snapshotTime(e.Name())
		if !ok || !taken.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.config.StoragePath, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
		s.logger.Info().Str("file", e.Name()).Time("taken_at", taken).Msg("Old snapshot removed")
	}
	return removed, errors.Join(errs...)
}
