package models

const (
	NotificationPending    = "pending"
	NotificationProcessing = "processing"
	NotificationRetry      = "retry"
	NotificationCompleted  = "completed"
	NotificationFailed     = "failed"
)

const (
	NotificationKindBorrowingCreated = "borrowing_created"
	NotificationKindOverdue          = "overdue"
	NotificationKindFine             = "fine"
)

const (
	// DefaultFineMultiplier множитель штрафа за просрочку
	DefaultFineMultiplier = 2

	// DefaultOverdueCheckInterval период проверки просроченных выдач
	DefaultOverdueCheckInterval = 60 // 1 минута в секундах

	// WorkerQueueSize размер очереди воркера уведомлений
	WorkerQueueSize = 128

	// RateLimitMessages количество сообщений в окне
	RateLimitMessages = 20

	// RateLimitWindow окно ограничения частоты сообщений
	RateLimitWindow = 60 // 1 минута в секундах

	// DefaultListLimit максимальное число строк в ответе бота
	DefaultListLimit = 20
)
