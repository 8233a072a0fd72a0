// Package notify delivers availability alerts through the Telegram Bot API.
package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier sends HTML messages via an existing bot instance.
type TelegramNotifier struct {
	api *tgbotapi.BotAPI
}

// NewTelegramNotifier wraps a bot API client.
func NewTelegramNotifier(api *tgbotapi.BotAPI) *TelegramNotifier {
	return &TelegramNotifier{api: api}
}

// Send delivers one HTML message. Link previews are disabled so booking
// links stay compact.
func (n *TelegramNotifier) Send(ctx context.Context, chatID int64, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, html)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return nil
}
