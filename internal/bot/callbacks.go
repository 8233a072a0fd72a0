package bot

import (
	"context"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/padelwatch/padelwatch/internal/subscription"
)

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	data := query.Data
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	userID := query.From.ID

	switch {
	// Session browsing
	case strings.HasPrefix(data, "sessions_loc_"):
		b.sendSessionsSummary(ctx, chatID, messageID, strings.TrimPrefix(data, "sessions_loc_"))
	case strings.HasPrefix(data, "sessions_date_"):
		rest := strings.TrimPrefix(data, "sessions_date_")
		if i := strings.LastIndex(rest, "_"); i > 0 {
			b.sendSessionsDetail(ctx, chatID, messageID, rest[:i], rest[i+1:])
		}
	case data == "sessions_back_to_loc_select":
		b.editHTML(chatID, messageID, "📍 Выберите локацию для просмотра сеансов:", sessionsLocationKeyboard())
	case strings.HasPrefix(data, "sessions_back_to_summary_"):
		b.sendSessionsSummary(ctx, chatID, messageID, strings.TrimPrefix(data, "sessions_back_to_summary_"))

	// Subscribe flow navigation
	case data == "back_to_loc_select":
		b.editHTML(chatID, messageID, "📍 Выберите локацию для отслеживания:", subscribeLocationKeyboard())
	case data == "back_to_mon_type":
		b.sendMonitorTypeMenu(ctx, chatID, messageID, userID)
	case data == "back_to_date_select":
		b.sendDateMenu(ctx, chatID, messageID, userID)
	case data == "back_to_hour_select":
		b.sendHourMenu(ctx, chatID, messageID, userID)

	// Subscribe flow steps
	case strings.HasPrefix(data, "loc_"):
		d := b.drafts.get(userID)
		d.location = strings.TrimPrefix(data, "loc_")
		d.pred = nil
		d.hourSet = false
		b.sendMonitorTypeMenu(ctx, chatID, messageID, userID)
	case strings.HasPrefix(data, "mon_type_range_"):
		days, err := strconv.Atoi(strings.TrimPrefix(data, "mon_type_range_"))
		if err != nil || days <= 0 {
			return
		}
		b.drafts.get(userID).pred = subscription.RollingWindow{Days: days}
		b.sendHourMenu(ctx, chatID, messageID, userID)
	case data == "mon_type_specific":
		b.sendDateMenu(ctx, chatID, messageID, userID)
	case strings.HasPrefix(data, "mon_date_"):
		date, err := time.ParseInLocation(subscription.DateLayout, strings.TrimPrefix(data, "mon_date_"), b.tz)
		if err != nil {
			return
		}
		b.drafts.get(userID).pred = subscription.SpecificDate{Date: date}
		b.sendHourMenu(ctx, chatID, messageID, userID)
	case data == "hour_all":
		d := b.drafts.get(userID)
		d.hour = subscription.AnyHour
		d.hourSet = true
		b.sendCourtMenu(ctx, chatID, messageID, userID)
	case strings.HasPrefix(data, "hour_"):
		h, err := strconv.Atoi(strings.TrimPrefix(data, "hour_"))
		if err != nil || h < subscription.FirstHour || h > subscription.LastHour {
			return
		}
		d := b.drafts.get(userID)
		d.hour = h
		d.hourSet = true
		b.sendCourtMenu(ctx, chatID, messageID, userID)
	case strings.HasPrefix(data, "courts_"):
		b.completeSubscription(ctx, chatID, messageID, userID, strings.TrimPrefix(data, "courts_"))

	// Subscription management
	case data == "back_to_mytimes":
		b.deleteMessage(chatID, messageID)
		b.sendMyTimes(ctx, chatID, userID)
	case data == "go_to_remove":
		b.deleteMessage(chatID, messageID)
		b.sendRemoveMenu(ctx, chatID, userID)
	case strings.HasPrefix(data, "rm_id_"):
		id, err := strconv.ParseInt(strings.TrimPrefix(data, "rm_id_"), 10, 64)
		if err != nil {
			return
		}
		if err := b.store.Remove(ctx, id); err != nil {
			b.logger.Error("remove subscription failed", "id", id, "error", err)
		}
		b.deleteMessage(chatID, messageID)
		b.sendMyTimes(ctx, chatID, userID)
	case data == "rm_all":
		kb := markup(
			tgbotapi.NewInlineKeyboardRow(btn("✅ Да, удалить", "rm_all_confirm")),
			tgbotapi.NewInlineKeyboardRow(btn("🚫 Отмена", "go_to_remove")))
		b.editHTML(chatID, messageID, "Вы уверены, что хотите удалить ВСЕ отслеживания?", kb)
	case data == "rm_all_confirm":
		if err := b.store.RemoveAll(ctx, userID); err != nil {
			b.logger.Error("remove all subscriptions failed", "user_id", userID, "error", err)
		}
		b.deleteMessage(chatID, messageID)
		b.sendMyTimes(ctx, chatID, userID)
	}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
