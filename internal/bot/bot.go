// Package bot implements the Telegram UI: browsing live availability,
// creating and removing watch subscriptions, and admin management.
package bot

import (
	"context"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/padelwatch/padelwatch/internal/availability"
	"github.com/padelwatch/padelwatch/internal/config"
	"github.com/padelwatch/padelwatch/internal/subscription"
)

// Bot handles Telegram updates. One instance serves all chats.
type Bot struct {
	api        *tgbotapi.BotAPI
	store      *subscription.Store
	aggregator *availability.Aggregator
	cfg        *config.Config
	tz         *time.Location
	logger     *slog.Logger

	flood  *floodControl
	drafts *draftStore

	startedAt time.Time
	now       func() time.Time
}

// New creates a Bot.
func New(api *tgbotapi.BotAPI, store *subscription.Store, agg *availability.Aggregator, cfg *config.Config, tz *time.Location, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		api:        api,
		store:      store,
		aggregator: agg,
		cfg:        cfg,
		tz:         tz,
		logger:     logger,
		flood:      newFloodControl(cfg.FloodActions, cfg.FloodPeriod),
		drafts:     newDraftStore(),
		startedAt:  time.Now(),
		now:        time.Now,
	}
}

// Run consumes updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("bot update loop started", "username", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("bot update loop stopped")
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.IsCommand():
		msg := update.Message
		b.registerUser(ctx, msg.From, msg.Chat.ID)
		if !b.flood.Allow(msg.From.ID) {
			b.logger.Warn("command flood detected", "user_id", msg.From.ID)
			return
		}
		b.handleCommand(ctx, msg)

	case update.CallbackQuery != nil:
		query := update.CallbackQuery
		b.registerUser(ctx, query.From, query.Message.Chat.ID)
		if !b.flood.Allow(query.From.ID) {
			alert := tgbotapi.NewCallbackWithAlert(query.ID, "Слишком много запросов. Попробуйте через несколько секунд.")
			if _, err := b.api.Request(alert); err != nil {
				b.logger.Warn("callback answer failed", "error", err)
			}
			return
		}
		if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
			b.logger.Warn("callback answer failed", "error", err)
		}
		b.handleCallback(ctx, query)
	}
}

// registerUser upserts the user on every interaction so chat ids stay fresh.
func (b *Bot) registerUser(ctx context.Context, user *tgbotapi.User, chatID int64) {
	if user == nil {
		return
	}
	if err := b.store.EnsureUser(ctx, user.ID, chatID, user.UserName, user.FirstName); err != nil {
		b.logger.Error("user upsert failed", "user_id", user.ID, "error", err)
	}
}

// --------------------------------------------------------------------------
// Send/edit helpers
// --------------------------------------------------------------------------

func (b *Bot) sendHTML(chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if kb != nil {
		msg.ReplyMarkup = *kb
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("send failed", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) editHTML(chatID int64, messageID int, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true
	edit.ReplyMarkup = kb
	if _, err := b.api.Send(edit); err != nil {
		// Re-tapping a button produces an identical edit; not an error.
		if !strings.Contains(err.Error(), "message is not modified") {
			b.logger.Error("edit failed", "chat_id", chatID, "error", err)
		}
	}
}

func (b *Bot) deleteMessage(chatID int64, messageID int) {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		b.logger.Warn("delete failed", "chat_id", chatID, "error", err)
	}
}

func markup(rows ...[]tgbotapi.InlineKeyboardButton) *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func btn(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}
