package keyboards

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nutrisnap/nutrisnap/internal/domain"
)

// MainMenu creates the home view keyboard
func MainMenu(loggedIn bool) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🍽️ Analyze a meal", "analyze_meal"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 Log date", "pick_date"),
			tgbotapi.NewInlineKeyboardButtonData("📖 Full history", "view_history"),
		),
	}

	if loggedIn {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚪 Log out", "logout"),
		))
	} else {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔐 Log in", "view_login"),
		))
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// LoginMenu creates the login/registration view keyboard
func LoginMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔑 Log in", "login"),
			tgbotapi.NewInlineKeyboardButtonData("📝 Register", "register"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀️ Home", "view_home"),
		),
	)
}

// DateMenu creates the log-date picker keyboard
func DateMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Today", "date_today"),
			tgbotapi.NewInlineKeyboardButtonData("Yesterday", "date_yesterday"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗓️ Another day", "date_custom"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀️ Home", "view_home"),
		),
	)
}

// MealCard creates the per-meal keyboard with item-level actions. Buttons
// carry the meal id and item index in their callback data.
func MealCard(meal *domain.MealAnalysis) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	for i := range meal.FoodItems {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("✏️ Edit %d", i+1),
				fmt.Sprintf("edit:%s:%d", meal.ID, i),
			),
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("🗑️ Remove %d", i+1),
				fmt.Sprintf("delitem:%s:%d", meal.ID, i),
			),
		))
	}

	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Add item", "additem:"+meal.ID),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑️ Delete meal", "delmeal:"+meal.ID),
			tgbotapi.NewInlineKeyboardButtonData("◀️ Home", "view_home"),
		),
	)

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// ConfirmDelete asks before a meal is removed for good.
func ConfirmDelete(mealID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Yes, delete", "confirmdel:"+mealID),
			tgbotapi.NewInlineKeyboardButtonData("↩️ Keep it", "meal:"+mealID),
		),
	)
}

// RecentHistory lists up to limit recent meals as buttons.
func RecentHistory(history []domain.MealAnalysis, limit int) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, meal := range history {
		if i >= limit {
			break
		}
		label := fmt.Sprintf("%d kcal — %s", meal.TotalCalories, truncate(meal.OriginalInput, 32))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "meal:"+meal.ID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
