package models

import "time"

// Notification is an outbox row waiting to be delivered to a chat.
type Notification struct {
	ID          int64      `json:"id"`
	Kind        string     `json:"kind"`
	ChatID      int64      `json:"chat_id"`
	Message     string     `json:"message"`
	Status      string     `json:"status"`
	RetryCount  int        `json:"retry_count"`
	LastError   *string    `json:"last_error"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at"`
	NextRetryAt *time.Time `json:"next_retry_at"`
}
