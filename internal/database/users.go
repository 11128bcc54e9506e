package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"library/internal/domain"
	"library/internal/models"
)

type userRow struct {
	ID         int64     `db:"id"`
	TelegramID int64     `db:"telegram_id"`
	Username   string    `db:"username"`
	FirstName  string    `db:"first_name"`
	LastName   string    `db:"last_name"`
	Email      string    `db:"email"`
	IsStaff    bool      `db:"is_staff"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r userRow) toModel() *models.User {
	return &models.User{
		ID:         r.ID,
		TelegramID: r.TelegramID,
		Username:   r.Username,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Email:      r.Email,
		IsStaff:    r.IsStaff,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

const userColumns = `id, telegram_id, username, first_name, last_name, email, is_staff, created_at, updated_at`

func (db *DB) getUser(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` = ?`
	var row userRow
	if err := db.GetContext(ctx, &row, db.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return row.toModel(), nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return db.getUser(ctx, "id", id)
}

func (db *DB) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return db.getUser(ctx, "telegram_id", telegramID)
}

// CreateOrUpdateUser upserts by telegram id. An empty email never clears a stored one.
func (db *DB) CreateOrUpdateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (telegram_id, username, first_name, last_name, email, is_staff, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT (telegram_id) DO UPDATE SET
                username = excluded.username,
                first_name = excluded.first_name,
                last_name = excluded.last_name,
                email = CASE WHEN excluded.email <> '' THEN excluded.email ELSE users.email END,
                is_staff = excluded.is_staff,
                updated_at = excluded.updated_at
              RETURNING id`
	now := time.Now().UTC()
	var id int64
	err := db.QueryRowxContext(ctx, db.Rebind(query),
		user.TelegramID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.Email,
		user.IsStaff,
		now,
		now,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	user.ID = id
	user.UpdatedAt = now
	return nil
}
