package bot

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/padelwatch/padelwatch/internal/config"
	"github.com/padelwatch/padelwatch/internal/format"
	"github.com/padelwatch/padelwatch/internal/subscription"
)

func sessionsLocationKeyboard() *tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(config.LocationOrder))
	for _, name := range config.LocationOrder {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn(name, "sessions_loc_"+name)))
	}
	return markup(rows...)
}

// sendSessionsSummary shows all free slots at a location over the default
// window, one line per date, with drill-down buttons.
func (b *Bot) sendSessionsSummary(ctx context.Context, chatID int64, messageID int, locName string) {
	loc, ok := config.GetLocation(locName)
	if !ok {
		b.editHTML(chatID, messageID, "😕 Неизвестная локация.", nil)
		return
	}
	b.editHTML(chatID, messageID, fmt.Sprintf("🔍 Ищу сеансы для <b>%s</b>...", locName), nil)

	now := b.now().In(b.tz)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, b.tz)

	type dayResult struct {
		date   time.Time
		labels []string
	}
	var (
		mu      sync.Mutex
		results []dayResult
		wg      sync.WaitGroup
	)
	for i := 0; i < config.DefaultRangeDays; i++ {
		date := today.AddDate(0, 0, i)
		wg.Add(1)
		go func(date time.Time) {
			defer wg.Done()
			snap := b.aggregator.Fetch(ctx, loc, date)
			labels := make([]string, 0, len(snap))
			for label := range snap {
				// Hide already-started slots on the current day.
				if date.Equal(today) {
					if h, err := strconv.Atoi(strings.SplitN(label, ":", 2)[0]); err == nil && h < now.Hour() {
						continue
					}
				}
				labels = append(labels, label)
			}
			if len(labels) == 0 {
				return
			}
			sort.Strings(labels)
			mu.Lock()
			results = append(results, dayResult{date: date, labels: labels})
			mu.Unlock()
		}(date)
	}
	wg.Wait()
	sort.Slice(results, func(i, j int) bool { return results[i].date.Before(results[j].date) })

	backRow := tgbotapi.NewInlineKeyboardRow(btn("⬅️ Назад", "sessions_back_to_loc_select"))
	if len(results) == 0 {
		b.editHTML(chatID, messageID,
			fmt.Sprintf("😔 Свободных кортов %s на ближайшие %d дней не найдено.", loc.DisplayInCase, config.DefaultRangeDays),
			markup(backRow))
		return
	}

	parts := []string{fmt.Sprintf("<b>Все свободные корты %s в ближайшие %d дней:</b>\n", loc.DisplayInCase, config.DefaultRangeDays)}
	var dateButtons []tgbotapi.InlineKeyboardButton
	for _, r := range results {
		parts = append(parts, fmt.Sprintf("🎾 <b>%s:</b>\n• %s\n", format.DateFull(r.date), strings.Join(r.labels, " ")))
		dateButtons = append(dateButtons, btn(format.DateShort(r.date),
			fmt.Sprintf("sessions_date_%s_%s", locName, r.date.Format(subscription.DateLayout))))
	}
	parts = append(parts, "<b>Подробнее:</b>")

	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(dateButtons); i += 4 {
		end := i + 4
		if end > len(dateButtons) {
			end = len(dateButtons)
		}
		rows = append(rows, dateButtons[i:end])
	}
	rows = append(rows, backRow)
	b.editHTML(chatID, messageID, strings.Join(parts, "\n"), markup(rows...))
}

// sendSessionsDetail shows one date with prices per court type.
func (b *Bot) sendSessionsDetail(ctx context.Context, chatID int64, messageID int, locName, dateISO string) {
	loc, ok := config.GetLocation(locName)
	if !ok {
		b.editHTML(chatID, messageID, "😕 Неизвестная локация.", nil)
		return
	}
	date, err := time.ParseInLocation(subscription.DateLayout, dateISO, b.tz)
	if err != nil {
		b.editHTML(chatID, messageID, "😕 Некорректная дата.", nil)
		return
	}
	b.editHTML(chatID, messageID, fmt.Sprintf("🔍 Загружаю детали на <b>%s</b>...", format.DateShort(date)), nil)

	snap := b.aggregator.Fetch(ctx, loc, date)
	backRow := tgbotapi.NewInlineKeyboardRow(btn("⬅️ Назад к обзору", "sessions_back_to_summary_"+locName))
	if len(snap) == 0 {
		b.editHTML(chatID, messageID, "😕 Не удалось получить данные на эту дату.", markup(backRow))
		return
	}

	labels := make([]string, 0, len(snap))
	for label := range snap {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	parts := []string{fmt.Sprintf("🎾 <b>%s</b> (%s):", locName, format.DateFull(date))}
	for _, label := range labels {
		courts := snap[label]
		names := make([]string, 0, len(courts))
		for name := range courts {
			names = append(names, name)
		}
		sort.Strings(names)
		details := make([]string, 0, len(names))
		for _, name := range names {
			details = append(details, fmt.Sprintf("%s - %s", name, format.Price(courts[name])))
		}
		parts = append(parts, fmt.Sprintf("• <b>%s</b>: %s", label, strings.Join(details, " | ")))
	}
	parts = append(parts, "\n*<i>Цена указана за час</i>")
	if loc.BookingLink != "" {
		parts = append(parts, fmt.Sprintf("\n🔗 <a href=\"%s\">Забронировать</a>", loc.BookingLink))
	}

	b.editHTML(chatID, messageID, strings.Join(parts, "\n"), markup(backRow))
}
