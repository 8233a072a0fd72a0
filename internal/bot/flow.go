package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/padelwatch/padelwatch/internal/config"
	"github.com/padelwatch/padelwatch/internal/subscription"
)

func subscribeLocationKeyboard() *tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(config.LocationOrder))
	for _, name := range config.LocationOrder {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn(name, "loc_"+name)))
	}
	return markup(rows...)
}

// predicateEqual compares predicates through their canonical encoding.
func predicateEqual(a, b subscription.DatePredicate) bool {
	if a == nil || b == nil {
		return false
	}
	ja, errA := subscription.MarshalPredicate(a)
	jb, errB := subscription.MarshalPredicate(b)
	return errA == nil && errB == nil && string(ja) == string(jb)
}

// sendMonitorTypeMenu offers the rolling window and specific-date options.
// The window button is hidden when the user already has that exact
// subscription with the any-hour wildcard.
func (b *Bot) sendMonitorTypeMenu(ctx context.Context, chatID int64, messageID int, userID int64) {
	d := b.drafts.get(userID)
	if d.location == "" {
		b.editHTML(chatID, messageID, "❗️Ошибка сессии. Начните заново с /addtime", nil)
		return
	}

	subs, err := b.store.ListByUser(ctx, userID)
	if err != nil {
		b.logger.Error("list subscriptions failed", "user_id", userID, "error", err)
		subs = nil
	}

	defaultWindow := subscription.RollingWindow{Days: config.DefaultRangeDays}
	hasDefault := false
	for _, sub := range subs {
		if sub.Location == d.location && sub.Hour == subscription.AnyHour && predicateEqual(sub.Predicate, defaultWindow) {
			hasDefault = true
			break
		}
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	if !hasDefault {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			btn(fmt.Sprintf("На ближайшие %d дней", config.DefaultRangeDays),
				fmt.Sprintf("mon_type_range_%d", config.DefaultRangeDays))))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(btn("Выбрать конкретную дату", "mon_type_specific")),
		tgbotapi.NewInlineKeyboardRow(btn("⬅️ Назад", "back_to_loc_select")))

	b.editHTML(chatID, messageID,
		fmt.Sprintf("📍 <b>%s</b>\n🗓️ Выберите тип мониторинга:", d.location), markup(rows...))
}

// sendDateMenu lists pickable dates, hiding dates the user already watches
// with the any-hour wildcard.
func (b *Bot) sendDateMenu(ctx context.Context, chatID int64, messageID int, userID int64) {
	d := b.drafts.get(userID)
	if d.location == "" {
		b.editHTML(chatID, messageID, "❗️Ошибка сессии. Начните заново с /addtime", nil)
		return
	}

	subs, err := b.store.ListByUser(ctx, userID)
	if err != nil {
		b.logger.Error("list subscriptions failed", "user_id", userID, "error", err)
		subs = nil
	}

	covered := make(map[string]struct{})
	for _, sub := range subs {
		if sub.Location != d.location || sub.Hour != subscription.AnyHour {
			continue
		}
		if sd, ok := sub.Predicate.(subscription.SpecificDate); ok {
			covered[sd.Date.Format(subscription.DateLayout)] = struct{}{}
		}
	}

	today := midnight(b.now().In(b.tz))
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for i := 0; i < config.MaxSpecificDays; i++ {
		date := today.AddDate(0, 0, i)
		iso := date.Format(subscription.DateLayout)
		if _, ok := covered[iso]; ok {
			continue
		}
		row = append(row, btn(date.Format("02.01"), "mon_date_"+iso))
		if len(row) == 5 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	backRow := tgbotapi.NewInlineKeyboardRow(btn("⬅️ Назад", "back_to_mon_type"))
	if len(rows) == 0 {
		text := fmt.Sprintf("📍 <b>%s</b>\n🗓️ У вас уже есть отслеживания на 'любое время' для всех доступных дат.\n\nУдалите подписки в /mytimes, чтобы добавить новые.", d.location)
		b.editHTML(chatID, messageID, text, markup(backRow))
		return
	}
	rows = append(rows, backRow)
	b.editHTML(chatID, messageID,
		fmt.Sprintf("📍 <b>%s</b>\n🗓️ Выберите дату для отслеживания:", d.location), markup(rows...))
}

// sendHourMenu lists pickable hours, hiding hours already subscribed for the
// same location and predicate.
func (b *Bot) sendHourMenu(ctx context.Context, chatID int64, messageID int, userID int64) {
	d := b.drafts.get(userID)
	if d.location == "" || d.pred == nil {
		b.editHTML(chatID, messageID, "❗️Ошибка сессии. Начните заново с /addtime", nil)
		return
	}

	subs, err := b.store.ListByUser(ctx, userID)
	if err != nil {
		b.logger.Error("list subscriptions failed", "user_id", userID, "error", err)
		subs = nil
	}

	taken := make(map[int]struct{})
	for _, sub := range subs {
		if sub.Location == d.location && predicateEqual(sub.Predicate, d.pred) {
			taken[sub.Hour] = struct{}{}
		}
	}

	var buttons []tgbotapi.InlineKeyboardButton
	for h := subscription.FirstHour; h <= subscription.LastHour; h++ {
		if _, ok := taken[h]; ok {
			continue
		}
		buttons = append(buttons, btn(subscription.HourLabel(h), fmt.Sprintf("hour_%d", h)))
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(buttons); i += 4 {
		end := i + 4
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, buttons[i:end])
	}
	if _, ok := taken[subscription.AnyHour]; !ok {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn("👀 Любое время", "hour_all")))
	}

	backTarget := "back_to_mon_type"
	if _, ok := d.pred.(subscription.SpecificDate); ok {
		backTarget = "back_to_date_select"
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn("⬅️ Назад", backTarget)))

	b.editHTML(chatID, messageID,
		fmt.Sprintf("📍 <b>%s</b>\n🕐 Выберите час:", d.location), markup(rows...))
}

// sendCourtMenu offers the location's court types plus "all types".
func (b *Bot) sendCourtMenu(ctx context.Context, chatID int64, messageID int, userID int64) {
	d := b.drafts.get(userID)
	if d.location == "" || !d.hourSet {
		b.editHTML(chatID, messageID, "❗️Ошибка сессии. Начните заново с /addtime", nil)
		return
	}
	loc, ok := config.GetLocation(d.location)
	if !ok {
		b.editHTML(chatID, messageID, "❗️Ошибка сессии. Начните заново с /addtime", nil)
		return
	}

	hourLabel := "Любое время"
	if d.hour != subscription.AnyHour {
		hourLabel = subscription.HourLabel(d.hour)
	}

	courts := loc.CourtNames()
	sort.Strings(courts)
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, ct := range courts {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn("Только "+ct, "courts_"+ct)))
	}
	if len(courts) > 1 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn("Все типы", "courts_both")))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn("⬅️ Назад", "back_to_hour_select")))

	b.editHTML(chatID, messageID,
		fmt.Sprintf("📍 <b>%s</b> | 🕐 <b>%s</b>\n\n🎾 Выберите тип корта:", d.location, hourLabel), markup(rows...))
}

// completeSubscription persists the draft with the chosen court selection.
func (b *Bot) completeSubscription(ctx context.Context, chatID int64, messageID int, userID int64, selection string) {
	d := b.drafts.get(userID)
	if d.location == "" || d.pred == nil || !d.hourSet {
		b.editHTML(chatID, messageID, "❗️Ошибка сессии. Начните заново с /addtime", nil)
		return
	}
	loc, ok := config.GetLocation(d.location)
	if !ok {
		b.editHTML(chatID, messageID, "❗️Ошибка сессии. Начните заново с /addtime", nil)
		return
	}

	var courts []string
	if selection == "both" {
		courts = loc.CourtNames()
	} else {
		if _, ok := loc.Courts[selection]; !ok {
			b.editHTML(chatID, messageID, "❗️Неизвестный тип корта. Начните заново с /addtime", nil)
			return
		}
		courts = []string{selection}
	}
	courts = subscription.SortedCourtTypes(courts)

	if err := b.store.Add(ctx, userID, d.location, d.hour, courts, d.pred); err != nil {
		b.logger.Error("add subscription failed", "user_id", userID, "error", err)
		b.editHTML(chatID, messageID, "Произошла непредвиденная ошибка. Попробуйте снова.", nil)
		return
	}

	hourLabel := "любое время"
	if d.hour != subscription.AnyHour {
		hourLabel = subscription.HourLabel(d.hour)
	}
	b.editHTML(chatID, messageID, fmt.Sprintf(
		"✅ Готово! Добавлено отслеживание:\n📍 <b>%s</b> | 🕐 <b>%s</b> | 🎾 <b>%s</b>\n<i>(%s)</i>",
		d.location, hourLabel, strings.Join(courts, "+"), d.pred.Describe()), nil)
	b.drafts.clear(userID)
}

// --------------------------------------------------------------------------
// /mytimes and removal
// --------------------------------------------------------------------------

func sortSubsForDisplay(subs []subscription.Subscription) {
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].Location != subs[j].Location {
			return subs[i].Location < subs[j].Location
		}
		di, dj := subs[i].Predicate.Describe(), subs[j].Predicate.Describe()
		if di != dj {
			return di < dj
		}
		return subs[i].Hour < subs[j].Hour
	})
}

func (b *Bot) sendMyTimes(ctx context.Context, chatID, userID int64) {
	subs, err := b.store.ListByUser(ctx, userID)
	if err != nil {
		b.logger.Error("list subscriptions failed", "user_id", userID, "error", err)
		return
	}
	if len(subs) == 0 {
		b.sendHTML(chatID, "❌ У вас нет активных отслеживаний.", nil)
		return
	}
	sortSubsForDisplay(subs)

	parts := []string{"🕐 <b>Ваши отслеживания:</b>"}
	for _, sub := range subs {
		parts = append(parts, fmt.Sprintf("\n📍 <b>%s</b>: %s (%s) - <i>%s</i>",
			sub.Location, sub.HourDescribe(), strings.Join(sub.CourtTypes, ", "), sub.Predicate.Describe()))
	}
	kb := markup(tgbotapi.NewInlineKeyboardRow(btn("🗑️ Удалить отслеживания", "go_to_remove")))
	b.sendHTML(chatID, strings.Join(parts, "\n"), kb)
}

func (b *Bot) sendRemoveMenu(ctx context.Context, chatID, userID int64) {
	subs, err := b.store.ListByUser(ctx, userID)
	if err != nil {
		b.logger.Error("list subscriptions failed", "user_id", userID, "error", err)
		return
	}
	if len(subs) == 0 {
		b.sendHTML(chatID, "❌ Нет отслеживаний для удаления.", nil)
		return
	}
	sortSubsForDisplay(subs)

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, sub := range subs {
		hourLabel := "Любое"
		if sub.Hour != subscription.AnyHour {
			hourLabel = subscription.HourLabel(sub.Hour)
		}
		initials := make([]string, 0, len(sub.CourtTypes))
		for _, ct := range sub.CourtTypes {
			initials = append(initials, string([]rune(ct)[0]))
		}
		label := fmt.Sprintf("🗑 %s %s (%s) (%s)",
			sub.Location, hourLabel, removeDesc(sub.Predicate), strings.Join(initials, "+"))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn(label, fmt.Sprintf("rm_id_%d", sub.ID))))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(btn("❌ Удалить все", "rm_all")),
		tgbotapi.NewInlineKeyboardRow(btn("⬅️ Назад", "back_to_mytimes")))
	b.sendHTML(chatID, "Выберите отслеживание для удаления:", markup(rows...))
}

// removeDesc is the compact predicate label used on removal buttons.
func removeDesc(p subscription.DatePredicate) string {
	switch v := p.(type) {
	case subscription.RollingWindow:
		return fmt.Sprintf("%dд", v.Days)
	case subscription.SpecificDate:
		return v.Date.Format("02.01")
	default:
		return "?"
	}
}
