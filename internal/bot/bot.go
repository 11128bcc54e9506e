package bot

import (
	"context"
	"os"
	"time"

	"library/internal/config"
	"library/internal/domain"
	"library/internal/metrics"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// updateTimeout is the long-polling timeout for getUpdates, in seconds.
const updateTimeout = 60

// Bot is the chat front-end of the library: catalog lookups, borrowing and returns, payments.
type Bot struct {
	tgService        domain.TelegramService
	config           *config.Config
	rateLimiter      domain.RateLimiter
	borrowingService domain.BorrowingService
	bookService      domain.BookService
	paymentService   domain.PaymentService
	userService      domain.UserService
	metrics          *metrics.Metrics
	logger           *zerolog.Logger
}

func NewBot(
	tgService domain.TelegramService,
	config *config.Config,
	rateLimiter domain.RateLimiter,
	borrowingService domain.BorrowingService,
	bookService domain.BookService,
	paymentService domain.PaymentService,
	userService domain.UserService,
	metrics *metrics.Metrics,
	logger *zerolog.Logger,
) *Bot {
	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}

	return &Bot{
		tgService:        tgService,
		config:           config,
		rateLimiter:      rateLimiter,
		borrowingService: borrowingService,
		bookService:      bookService,
		paymentService:   paymentService,
		userService:      userService,
		metrics:          metrics,
		logger:           logger,
	}
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = updateTimeout

	updates := b.tgService.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tgService.GetSelf().UserName).Msg("Authorized on account")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.processUpdate(ctx, update)
		}
	}
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	defer b.metrics.ObserveUpdate(start)

	// Создаем контекст для обработки каждого обновления
	updateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	requestID := uuid.New().String()
	l := b.logger.With().Str("request_id", requestID).Logger()
	updateCtx = l.WithContext(updateCtx)

	b.withRecovery(func() {
		if update.Message == nil || update.Message.From == nil {
			return
		}
		userID := update.Message.From.ID

		if !b.userService.IsStaff(userID) && b.rateLimiter != nil {
			allowed, err := b.rateLimiter.CheckRateLimit(updateCtx, userID, b.config.Bot.RateLimitMessages, time.Duration(b.config.Bot.RateLimitWindow)*time.Second)
			if err != nil {
				l.Error().Err(err).Int64("user_id", userID).Msg("Rate limit check failed")
			} else if !allowed {
				l.Warn().Int64("user_id", userID).Msg("Rate limit exceeded")
				b.sendMessage(update.Message.Chat.ID, "⚠️ You are sending messages too often. Please wait a little.")
				return
			}
		}

		b.handleMessage(updateCtx, update.Message)
	})
}

// Stop ends long polling; Start returns once the updates channel closes.
func (b *Bot) Stop() {
	if b == nil || b.tgService == nil {
		return
	}
	b.tgService.StopReceivingUpdates()
}
