package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"library/internal/models"
)

type notificationRow struct {
	ID          int64          `db:"id"`
	Kind        string         `db:"kind"`
	ChatID      int64          `db:"chat_id"`
	Message     string         `db:"message"`
	Status      string         `db:"status"`
	RetryCount  int            `db:"retry_count"`
	LastError   sql.NullString `db:"last_error"`
	CreatedAt   time.Time      `db:"created_at"`
	ProcessedAt sql.NullTime   `db:"processed_at"`
	NextRetryAt sql.NullTime   `db:"next_retry_at"`
}

func (r notificationRow) toModel() models.Notification {
	n := models.Notification{
		ID:         r.ID,
		Kind:       r.Kind,
		ChatID:     r.ChatID,
		Message:    r.Message,
		Status:     r.Status,
		RetryCount: r.RetryCount,
		CreatedAt:  r.CreatedAt,
	}
	if r.LastError.Valid {
		n.LastError = &r.LastError.String
	}
	if r.ProcessedAt.Valid {
		n.ProcessedAt = &r.ProcessedAt.Time
	}
	if r.NextRetryAt.Valid {
		n.NextRetryAt = &r.NextRetryAt.Time
	}
	return n
}

const notificationColumns = `id, kind, chat_id, message, status, retry_count, last_error, created_at, processed_at, next_retry_at`

func (db *DB) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.Status == "" {
		n.Status = models.NotificationPending
	}
	query := `INSERT INTO notifications (kind, chat_id, message, status, retry_count, last_error, created_at, next_retry_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`
	now := time.Now().UTC()
	var id int64
	err := db.QueryRowxContext(ctx, db.Rebind(query),
		n.Kind,
		n.ChatID,
		n.Message,
		n.Status,
		n.RetryCount,
		n.LastError,
		now,
		n.NextRetryAt,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	n.ID = id
	n.CreatedAt = now
	return nil
}

// ClaimNotification moves a pending or retry row to processing. It reports false when another worker got it first.
func (db *DB) ClaimNotification(ctx context.Context, id int64) (bool, error) {
	query := `UPDATE notifications SET status = ? WHERE id = ? AND status IN (?, ?)`
	result, err := db.ExecContext(ctx, db.Rebind(query),
		models.NotificationProcessing, id, models.NotificationPending, models.NotificationRetry)
	if err != nil {
		return false, fmt.Errorf("failed to claim notification: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected == 1, nil
}

func (db *DB) GetNotification(ctx context.Context, id int64) (*models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = ?`
	var row notificationRow
	if err := db.GetContext(ctx, &row, db.Rebind(query), id); err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	n := row.toModel()
	return &n, nil
}

func (db *DB) GetPendingNotifications(ctx context.Context, limit int) ([]models.Notification, error) {
	query := `SELECT ` + notificationColumns + `
              FROM notifications
              WHERE status IN (?, ?) AND (next_retry_at IS NULL OR next_retry_at <= ?)
              ORDER BY created_at ASC LIMIT ?`
	var rows []notificationRow
	err := db.SelectContext(ctx, &rows, db.Rebind(query),
		models.NotificationPending, models.NotificationRetry, time.Now().UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending notifications: %w", err)
	}
	return toNotifications(rows), nil
}

func (db *DB) GetFailedNotifications(ctx context.Context) ([]models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE status = ? ORDER BY created_at DESC`
	var rows []notificationRow
	if err := db.SelectContext(ctx, &rows, db.Rebind(query), models.NotificationFailed); err != nil {
		return nil, fmt.Errorf("failed to get failed notifications: %w", err)
	}
	return toNotifications(rows), nil
}

func toNotifications(rows []notificationRow) []models.Notification {
	out := make([]models.Notification, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out
}

func (db *DB) UpdateNotificationStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error {
	var query string
	var args []interface{}
	now := time.Now().UTC()

	var lastError *string
	if errMsg != "" {
		lastError = &errMsg
	}

	switch status {
	case models.NotificationRetry:
		query = `UPDATE notifications SET status = ?, last_error = ?, next_retry_at = ?, retry_count = retry_count + 1 WHERE id = ?`
		args = []interface{}{status, lastError, nextRetryAt, id}
	case models.NotificationCompleted, models.NotificationFailed:
		query = `UPDATE notifications SET status = ?, last_error = ?, next_retry_at = ?, processed_at = ? WHERE id = ?`
		args = []interface{}{status, lastError, nextRetryAt, now, id}
	default:
		query = `UPDATE notifications SET status = ?, last_error = ?, next_retry_at = ? WHERE id = ?`
		args = []interface{}{status, lastError, nextRetryAt, id}
	}

	if _, err := db.ExecContext(ctx, db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to update notification status: %w", err)
	}
	return nil
}

// ResetStaleNotifications returns rows left in processing by a crashed worker to the retry state.
func (db *DB) ResetStaleNotifications(ctx context.Context) (int64, error) {
	query := `UPDATE notifications SET status = ? WHERE status = ?`
	result, err := db.ExecContext(ctx, db.Rebind(query), models.NotificationRetry, models.NotificationProcessing)
	if err != nil {
		return 0, fmt.Errorf("failed to reset stale notifications: %w", err)
	}
	return result.RowsAffected()
}
