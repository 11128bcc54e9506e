package bot

import (
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotWrapper adapts *tgbotapi.BotAPI to domain.TelegramSender.
type BotWrapper struct {
	*tgbotapi.BotAPI
}

func (w *BotWrapper) GetSelf() tgbotapi.User {
	return w.Self
}

// NewBotWrapper connects to the Bot API. timeout bounds every HTTP request and
// must exceed the long-polling timeout used by Start.
func NewBotWrapper(token string, debug bool, timeout time.Duration) (*BotWrapper, error) {
	if timeout <= updateTimeout*time.Second {
		return nil, fmt.Errorf("telegram request timeout %s must exceed %ds long polling", timeout, updateTimeout)
	}
	client := &http.Client{Timeout: timeout}
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	api.Debug = debug
	return &BotWrapper{BotAPI: api}, nil
}
