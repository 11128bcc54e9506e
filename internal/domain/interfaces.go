package domain

import (
	"context"
	"time"

	"library/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Repository is the persistent store behind the services.
type Repository interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	GetBook(ctx context.Context, id int64) (*models.Book, error)
	ListBooks(ctx context.Context, filter models.BookFilter) ([]*models.Book, error)
	UpsertBook(ctx context.Context, book *models.Book) error

	GetBorrowing(ctx context.Context, id int64) (*models.Borrowing, error)
	ListBorrowings(ctx context.Context, filter models.BorrowingFilter) ([]*models.Borrowing, error)
	ListOverdueBorrowings(ctx context.Context, today time.Time) ([]*models.Borrowing, error)

	GetPayment(ctx context.Context, id int64) (*models.Payment, error)
	ListPayments(ctx context.Context, filter models.PaymentFilter) ([]*models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status models.PaymentStatus) error

	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	CreateOrUpdateUser(ctx context.Context, user *models.User) error
}

// Tx is the unit of work used by the borrowing lifecycle.
type Tx interface {
	GetBook(ctx context.Context, id int64) (*models.Book, error)
	// AdjustInventory adds delta to the book inventory and fails with ErrUnavailable
	// when the result would be negative.
	AdjustInventory(ctx context.Context, bookID int64, delta int64) (*models.Book, error)
	GetBorrowing(ctx context.Context, id int64) (*models.Borrowing, error)
	CreateBorrowing(ctx context.Context, borrowing *models.Borrowing) error
	// MarkReturned sets the actual return date once and fails with ErrAlreadyReturned afterwards.
	MarkReturned(ctx context.Context, borrowingID int64, date time.Time) error
	CreatePayment(ctx context.Context, payment *models.Payment) error
	// Savepoint runs fn in a nested scope; its writes are discarded if fn fails
	// while the surrounding transaction stays usable.
	Savepoint(ctx context.Context, name string, fn func() error) error
}

// OutboxRepository persists notifications for the delivery worker.
type OutboxRepository interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ClaimNotification(ctx context.Context, id int64) (bool, error)
	GetPendingNotifications(ctx context.Context, limit int) ([]models.Notification, error)
	UpdateNotificationStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
	ResetStaleNotifications(ctx context.Context) (int64, error)
}

// SessionRequest describes a checkout session for the payment gateway.
type SessionRequest struct {
	AmountMinor    int64
	Description    string
	SuccessURL     string
	CancelURL      string
	IdempotencyKey string
}

type Session struct {
	ID  string
	URL string
}

type PaymentGateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	SessionStatus(ctx context.Context, sessionID string) (models.PaymentStatus, error)
}

// Notifier accepts human-readable messages for asynchronous delivery.
type Notifier interface {
	Notify(ctx context.Context, kind, message string) error
}

// MessageSender delivers a text message to a chat.
type MessageSender interface {
	SendToChat(ctx context.Context, chatID int64, text string) error
}

type RateLimiter interface {
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type TelegramService interface {
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type BorrowingService interface {
	CreateBorrowing(ctx context.Context, user *models.User, bookID int64, expectedReturnDate time.Time) (*models.Borrowing, error)
	ReturnBorrowing(ctx context.Context, borrowingID int64, actor *models.User) (*models.Borrowing, error)
	CheckOverdue(ctx context.Context) ([]*models.Borrowing, error)
	ListOverdue(ctx context.Context, actor *models.User) ([]*models.Borrowing, error)
	GetBorrowing(ctx context.Context, id int64, actor *models.User) (*models.Borrowing, error)
	ListBorrowings(ctx context.Context, actor *models.User, filter models.BorrowingFilter) ([]*models.Borrowing, error)
}

type BookService interface {
	ListBooks(ctx context.Context, filter models.BookFilter) ([]*models.Book, error)
	GetBook(ctx context.Context, id int64) (*models.Book, error)
}

type PaymentService interface {
	ListPayments(ctx context.Context, actor *models.User) ([]*models.Payment, error)
	RefreshPayment(ctx context.Context, actor *models.User, paymentID int64) (*models.Payment, error)
}

type UserService interface {
	IsStaff(telegramID int64) bool
	Register(ctx context.Context, user *models.User) (*models.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
}
