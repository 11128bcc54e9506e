package models

import "time"

type User struct {
	ID         int64     `json:"id"`
	TelegramID int64     `json:"telegram_id"` // уникальный ID Telegram
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	IsStaff    bool      `json:"is_staff"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DisplayName returns the most specific human-readable identity of the user.
func (u *User) DisplayName() string {
	switch {
	case u == nil:
		return "unknown user"
	case u.Email != "":
		return u.Email
	case u.Username != "":
		return "@" + u.Username
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return "user #" + itoa(u.ID)
	}
}
