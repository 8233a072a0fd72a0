package bot

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start", "help":
		b.sendWelcome(msg)
	case "sessions":
		b.sendHTML(msg.Chat.ID, "📍 Выберите локацию для просмотра сеансов:", sessionsLocationKeyboard())
	case "addtime":
		b.sendHTML(msg.Chat.ID, "📍 Выберите локацию для отслеживания:", subscribeLocationKeyboard())
	case "mytimes":
		b.sendMyTimes(ctx, msg.Chat.ID, msg.From.ID)
	case "webapp":
		b.sendWebApp(msg.Chat.ID)
	case "admin":
		b.adminOnly(ctx, msg, b.sendAdminPanel)
	case "status":
		b.adminOnly(ctx, msg, b.sendStatus)
	case "admin_add":
		b.adminOnly(ctx, msg, b.adminAdd)
	case "admin_remove":
		b.adminOnly(ctx, msg, b.adminRemove)
	case "admin_list":
		b.adminOnly(ctx, msg, b.adminList)
	case "admin_users":
		b.adminOnly(ctx, msg, b.adminUsers)
	}
}

func (b *Bot) sendWelcome(msg *tgbotapi.Message) {
	text := fmt.Sprintf(
		"👋 Привет, %s!\n\n"+
			"Я помогу отслеживать свободные корты.\n\n"+
			"<b>Команды:</b>\n"+
			"/sessions - 🎾 Посмотреть Сеансы\n"+
			"/addtime - ➕ Добавить Отслеживание\n"+
			"/mytimes - 📝 Мои Отслеживания\n"+
			"/webapp - 📱 Открыть Приложение\n"+
			"/help - ❓ Помощь",
		msg.From.FirstName)
	b.sendHTML(msg.Chat.ID, text, nil)
}

func (b *Bot) sendWebApp(chatID int64) {
	if b.cfg.WebAppURL == "" {
		b.sendHTML(chatID, "📱 Приложение пока недоступно.", nil)
		return
	}
	kb := markup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonURL("📱 Открыть приложение", b.cfg.WebAppURL),
	))
	b.sendHTML(chatID, "Выбирайте сеансы и подписки в приложении:", kb)
}

// --------------------------------------------------------------------------
// Admin commands
// --------------------------------------------------------------------------

func (b *Bot) adminOnly(ctx context.Context, msg *tgbotapi.Message, fn func(context.Context, *tgbotapi.Message)) {
	userID := msg.From.ID
	if userID != b.cfg.OwnerID {
		ok, err := b.store.IsAdmin(ctx, userID)
		if err != nil {
			b.logger.Error("admin check failed", "user_id", userID, "error", err)
			return
		}
		if !ok {
			return
		}
	}
	fn(ctx, msg)
}

func (b *Bot) sendAdminPanel(ctx context.Context, msg *tgbotapi.Message) {
	b.sendHTML(msg.Chat.ID,
		"⚙️ <b>Панель администратора</b>\n/status, /admin_add, /admin_remove, /admin_list, /admin_users", nil)
}

func (b *Bot) sendStatus(ctx context.Context, msg *tgbotapi.Message) {
	users, err := b.store.CountUsers(ctx)
	if err != nil {
		b.logger.Error("count users failed", "error", err)
	}
	subs, err := b.store.CountSubscriptions(ctx)
	if err != nil {
		b.logger.Error("count subscriptions failed", "error", err)
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	uptime := time.Since(b.startedAt)
	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60

	text := fmt.Sprintf(
		"<b>📊 Статус Бота</b>\n\n"+
			"<b>⚙️ Система:</b>\n"+
			"  - RAM: %.2f МБ\n"+
			"  - Горутины: %d\n\n"+
			"<b>⏱️ Uptime:</b> %dд %dч %dм\n\n"+
			"<b>👥 Пользователи:</b> %d\n"+
			"<b>🔔 Подписки:</b> %d",
		float64(mem.Alloc)/(1024*1024), runtime.NumGoroutine(),
		days, hours, minutes, users, subs)
	b.sendHTML(msg.Chat.ID, text, nil)
}

func (b *Bot) adminAdd(ctx context.Context, msg *tgbotapi.Message) {
	id, err := strconv.ParseInt(strings.TrimSpace(msg.CommandArguments()), 10, 64)
	if err != nil {
		b.sendHTML(msg.Chat.ID, "❗️Формат: /admin_add USER_ID", nil)
		return
	}
	if err := b.store.AddAdmin(ctx, id, msg.From.ID); err != nil {
		b.logger.Error("add admin failed", "error", err)
		return
	}
	b.sendHTML(msg.Chat.ID, "✅ Админ добавлен.", nil)
}

func (b *Bot) adminRemove(ctx context.Context, msg *tgbotapi.Message) {
	id, err := strconv.ParseInt(strings.TrimSpace(msg.CommandArguments()), 10, 64)
	if err != nil {
		b.sendHTML(msg.Chat.ID, "❗️Формат: /admin_remove USER_ID", nil)
		return
	}
	if id == b.cfg.OwnerID {
		b.sendHTML(msg.Chat.ID, "⛔️ Нельзя удалить владельца.", nil)
		return
	}
	if err := b.store.RemoveAdmin(ctx, id); err != nil {
		b.logger.Error("remove admin failed", "error", err)
		return
	}
	b.sendHTML(msg.Chat.ID, "🗑️ Админ удален.", nil)
}

func (b *Bot) adminList(ctx context.Context, msg *tgbotapi.Message) {
	admins, err := b.store.ListAdmins(ctx)
	if err != nil {
		b.logger.Error("list admins failed", "error", err)
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "👑 Владелец: <code>%d</code>\n\n👥 <b>Админы:</b>\n", b.cfg.OwnerID)
	if len(admins) == 0 {
		sb.WriteString("Нет")
	}
	for _, id := range admins {
		fmt.Fprintf(&sb, "- <code>%d</code>\n", id)
	}
	b.sendHTML(msg.Chat.ID, sb.String(), nil)
}

func (b *Bot) adminUsers(ctx context.Context, msg *tgbotapi.Message) {
	users, err := b.store.ListUsers(ctx)
	if err != nil {
		b.logger.Error("list users failed", "error", err)
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 <b>Всего пользователей: %d</b>\n\n", len(users))
	for i, u := range users {
		if i >= 20 {
			break
		}
		fmt.Fprintf(&sb, "- %s (<code>%d</code>)\n", u.FirstName, u.UserID)
	}
	b.sendHTML(msg.Chat.ID, sb.String(), nil)
}
