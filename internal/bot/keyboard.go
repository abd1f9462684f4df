package bot

import (
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Leganyst/salon-bot/internal/calendar"
	"github.com/Leganyst/salon-bot/internal/catalog"
)

const (
	slotsPerRow = 3

	blankLabel    = " "
	disabledLabel = "·"
	prevLabel     = "«"
	nextLabel     = "»"
	backLabel     = "⬅️ Back to calendar"
)

func ignoreButton(text string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, IgnoreData)
}

// ServicesKeyboard lists the catalog one service per row, in menu order.
func ServicesKeyboard(c *catalog.Catalog) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, s := range c.List() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(s.Label(), ServiceData(s.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// CalendarKeyboard renders a month page. Header, weekday, blank and past
// cells carry the ignore token.
func CalendarKeyboard(m calendar.Month) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(m.Weeks)+3)

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(ignoreButton(m.Header)))

	labels := make([]tgbotapi.InlineKeyboardButton, 0, calendar.DaysInWeek)
	for _, l := range m.WeekdayLabels {
		labels = append(labels, ignoreButton(l))
	}
	rows = append(rows, labels)

	for _, week := range m.Weeks {
		row := make([]tgbotapi.InlineKeyboardButton, 0, calendar.DaysInWeek)
		for _, cell := range week {
			switch {
			case cell.Blank():
				row = append(row, ignoreButton(blankLabel))
			case cell.Selectable:
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(strconv.Itoa(cell.Day), DateData(cell.Date)))
			default:
				row = append(row, ignoreButton(disabledLabel))
			}
		}
		rows = append(rows, row)
	}

	prev := ignoreButton(blankLabel)
	if m.Prev != nil {
		prev = tgbotapi.NewInlineKeyboardButtonData(prevLabel, MonthData(*m.Prev))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		prev,
		tgbotapi.NewInlineKeyboardButtonData(nextLabel, MonthData(m.Next)),
	))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// SlotsKeyboard lays the day's slots out three per row, followed by a
// back-to-calendar row.
func SlotsKeyboard(date time.Time, labels []string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, l := range labels {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(l, SlotData(date, l)))
		if len(row) == slotsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(backLabel, BackToCalendarData),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
