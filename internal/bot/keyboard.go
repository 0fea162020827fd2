package bot

import (
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ivanoskov/wallet/internal/model"
)

const (
	buttonExpense    = "💸 Add expense"
	buttonIncome     = "💰 Add income"
	buttonReport     = "📊 Report"
	buttonSummary    = "💵 Summary"
	buttonCategories = "📋 Categories"
	buttonTasks      = "✅ Tasks"
)

// Callback data is "<prefix>:<value>".
const (
	callbackCategory    = "cat"
	callbackNewCategory = "newcat"
	callbackDefaultCard = "card"
	callbackTaskDone    = "done"
	callbackNewTask     = "newtask"
	callbackBack        = "back"

	// Telegram rejects callback data longer than this.
	maxCallbackData = 64
)

func getMainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonExpense),
			tgbotapi.NewKeyboardButton(buttonIncome),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonReport),
			tgbotapi.NewKeyboardButton(buttonSummary),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonCategories),
			tgbotapi.NewKeyboardButton(buttonTasks),
		),
	)
}

func callbackData(prefix, value string) string {
	data := prefix + ":" + value
	if len(data) <= maxCallbackData {
		return data
	}
	cut := maxCallbackData
	for cut > 0 && !utf8.RuneStart(data[cut]) {
		cut--
	}
	return data[:cut]
}

// getCategoriesKeyboard lays the categories out two per row.
func getCategoriesKeyboard(categories []string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, name := range categories {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(name, callbackData(callbackCategory, name)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔙 Back", callbackBack),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func getCategoryManagementKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Add category", callbackNewCategory),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Back", callbackBack),
		),
	)
}

func getCardsKeyboard(cards []model.Card) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, c := range cards {
		if c.IsDefault {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⭐ Make "+c.Label+" •••• "+c.Last4+" default", callbackData(callbackDefaultCard, c.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔙 Back", callbackBack),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func getTasksKeyboard(tasks []model.Task) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, t := range tasks {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✔ "+t.Title, callbackData(callbackTaskDone, t.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("➕ New task", callbackNewTask),
		tgbotapi.NewInlineKeyboardButtonData("🔙 Back", callbackBack),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
