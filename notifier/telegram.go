// Package notifier delivers watcher messages to a Telegram chat.
package notifier

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"idealista-watcher/utils"
)

// sender is the part of the Bot API client the notifier uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends Markdown messages to one chat.
type Telegram struct {
	bot      sender
	chatID   int64
	throttle *utils.Throttle
}

// NewTelegram authenticates the bot token against the Bot API and returns a
// notifier bound to chatID. Sends are spaced at least rateLimitMs apart.
func NewTelegram(token string, chatID int64, rateLimitMs int) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: authorize bot: %w", err)
	}
	return newTelegram(bot, chatID, rateLimitMs), nil
}

func newTelegram(bot sender, chatID int64, rateLimitMs int) *Telegram {
	return &Telegram{
		bot:      bot,
		chatID:   chatID,
		throttle: utils.NewThrottle(rateLimitMs),
	}
}

// Send delivers text once. Failures are returned, not retried.
func (t *Telegram) Send(ctx context.Context, text string) error {
	if err := t.throttle.Wait(ctx); err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	return nil
}
