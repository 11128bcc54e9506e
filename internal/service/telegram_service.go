package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"library/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxMessageRunes is the Bot API limit for a single text message.
const maxMessageRunes = 4096

// TelegramService sends plain-text replies and notifications. Text longer
// than one Bot API message is split on line boundaries.
type TelegramService struct {
	bot      domain.TelegramSender
	maxRunes int
}

func NewTelegramService(bot domain.TelegramSender) *TelegramService {
	return &TelegramService{
		bot:      bot,
		maxRunes: maxMessageRunes,
	}
}

// SendMessage returns the last message sent. Web page previews are disabled
// so payment links don't expand into cards.
func (s *TelegramService) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	var last tgbotapi.Message
	for _, part := range splitMessage(text, s.maxRunes) {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.DisableWebPagePreview = true
		sent, err := s.bot.Send(msg)
		if err != nil {
			return last, err
		}
		last = sent
	}
	return last, nil
}

// SendToChat delivers plain text for the notification worker.
func (s *TelegramService) SendToChat(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.SendMessage(chatID, text)
	return err
}

func (s *TelegramService) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return s.bot.GetUpdatesChan(config)
}

func (s *TelegramService) GetSelf() tgbotapi.User {
	return s.bot.GetSelf()
}

func (s *TelegramService) StopReceivingUpdates() {
	s.bot.StopReceivingUpdates()
}

// splitMessage cuts text into parts of at most limit runes, preferring to
// break after a newline. A single overlong line is cut mid-line.
func splitMessage(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var parts []string
	var b strings.Builder
	n := 0
	flush := func() {
		if part := strings.TrimRight(b.String(), "\n"); part != "" {
			parts = append(parts, part)
		}
		b.Reset()
		n = 0
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		ln := utf8.RuneCountInString(line)
		if n+ln > limit {
			flush()
		}
		for ln > limit {
			cut := []rune(line)
			parts = append(parts, string(cut[:limit]))
			line = string(cut[limit:])
			ln -= limit
		}
		b.WriteString(line)
		n += ln
	}
	flush()
	return parts
}
