package bot

import (
	"context"

	"library/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func (b *Bot) withRecovery(handler func()) {
	defer func() {
		if r := recover(); r != nil {
			b.metrics.Command("panic")
			b.logger.Error().Interface("panic", r).Msg("Recovered from panic in update handler")
		}
	}()
	handler()
}

// ensureUser registers the sender on every message so that profile changes reach the store.
func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*models.User, error) {
	user, err := b.userService.Register(ctx, &models.User{
		TelegramID: from.ID,
		Username:   from.UserName,
		FirstName:  from.FirstName,
		LastName:   from.LastName,
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("telegram_id", from.ID).Msg("Failed to register user")
		return nil, err
	}
	return user, nil
}
