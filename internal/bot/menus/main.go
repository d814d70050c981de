package menus

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nutrisnap/nutrisnap/internal/bot/keyboards"
	"github.com/nutrisnap/nutrisnap/internal/domain"
	"github.com/nutrisnap/nutrisnap/internal/services"
	"github.com/nutrisnap/nutrisnap/internal/utils"
)

const recentHistoryLimit = 6

// SendHomeView sends the entry/analysis view: greeting, the current
// analysis if any, and up to six recent meals.
func SendHomeView(api *tgbotapi.BotAPI, chatID int64, loggedIn bool, username string, history []domain.MealAnalysis) error {
	var b strings.Builder
	b.WriteString("🥗 *NutriSnap*\n\n")
	if loggedIn {
		fmt.Fprintf(&b, "Welcome back, %s. ", username)
	}
	b.WriteString("Describe what you ate and I'll break down the nutrition for you.\n")
	if !loggedIn && len(history) > 0 {
		b.WriteString("\n🔐 Log in to keep your full history and daily totals.\n")
	}

	msg := tgbotapi.NewMessage(chatID, b.String())
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = keyboards.MainMenu(loggedIn)
	if _, err := api.Send(msg); err != nil {
		return err
	}

	if len(history) > 0 {
		recent := tgbotapi.NewMessage(chatID, "Recent meals:")
		recent.ReplyMarkup = keyboards.RecentHistory(history, recentHistoryLimit)
		if _, err := api.Send(recent); err != nil {
			return err
		}
	}
	return nil
}

// SendMealCard renders one analysis with item-level actions.
func SendMealCard(api *tgbotapi.BotAPI, chatID int64, meal *domain.MealAnalysis) error {
	t := utils.FromMillis(meal.Timestamp)

	var b strings.Builder
	fmt.Fprintf(&b, "🍽️ *%s*\n", escapeMarkdown(meal.OriginalInput))
	fmt.Fprintf(&b, "_%s_\n\n", t.Format("Mon, Jan 2 15:04"))
	fmt.Fprintf(&b, "🔥 *%d kcal*  •  %dg P / %dg C / %dg F\n", meal.TotalCalories, meal.ProteinGrams, meal.CarbsGrams, meal.FatGrams)

	if len(meal.FoodItems) > 0 {
		b.WriteString("\n")
		for i, item := range meal.FoodItems {
			fmt.Fprintf(&b, "%d. %s %s — %d kcal", i+1, escapeMarkdown(item.Quantity), escapeMarkdown(item.Name), item.Calories)
			if item.ProteinGrams+item.CarbsGrams+item.FatGrams > 0 {
				fmt.Fprintf(&b, " (%dp/%dc/%df)", item.ProteinGrams, item.CarbsGrams, item.FatGrams)
			}
			b.WriteString("\n")
		}
	}

	if meal.HealthTip != "" {
		fmt.Fprintf(&b, "\n💡 %s\n", escapeMarkdown(meal.HealthTip))
	}

	msg := tgbotapi.NewMessage(chatID, b.String())
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = keyboards.MealCard(meal)
	_, err := api.Send(msg)
	return err
}

// SendHistoryView renders the full chronological history grouped by
// calendar day with per-day totals.
func SendHistoryView(api *tgbotapi.BotAPI, chatID int64, history []domain.MealAnalysis) error {
	if len(history) == 0 {
		msg := tgbotapi.NewMessage(chatID, "No meals logged yet. Track your first meal to see it here.")
		msg.ReplyMarkup = keyboards.MainMenu(false)
		_, err := api.Send(msg)
		return err
	}

	groups := services.GroupByDay(history, time.Now())

	var b strings.Builder
	fmt.Fprintf(&b, "📖 *Your meal history* (%d logs)\n", len(history))
	for _, day := range groups {
		fmt.Fprintf(&b, "\n*%s* — 🔥 %d kcal (%dp/%dc/%df)\n",
			day.DisplayDate, day.TotalCalories, day.ProteinGrams, day.CarbsGrams, day.FatGrams)
		for _, meal := range day.Meals {
			t := utils.FromMillis(meal.Timestamp)
			fmt.Fprintf(&b, "  `%s`  %s — %d kcal\n",
				t.Format("15:04"), escapeMarkdown(meal.OriginalInput), meal.TotalCalories)
		}
	}
	b.WriteString("\nTap a recent meal on the home screen to edit or delete it.")

	msg := tgbotapi.NewMessage(chatID, b.String())
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = keyboards.RecentHistory(history, recentHistoryLimit)
	_, err := api.Send(msg)
	return err
}

// SendLoginMenu sends the login/registration view.
func SendLoginMenu(api *tgbotapi.BotAPI, chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "🔐 Log in to keep your meal history across sessions, or register a new account.")
	msg.ReplyMarkup = keyboards.LoginMenu()
	_, err := api.Send(msg)
	return err
}

// SendDateMenu sends the log-date picker.
func SendDateMenu(api *tgbotapi.BotAPI, chatID int64, selected time.Time) error {
	msg := tgbotapi.NewMessage(chatID,
		fmt.Sprintf("New entries are logged for *%s*. Pick another day:", selected.Format("Mon, Jan 2")))
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = keyboards.DateMenu()
	_, err := api.Send(msg)
	return err
}

// SendConfirmDelete asks for confirmation before a meal is removed.
func SendConfirmDelete(api *tgbotapi.BotAPI, chatID int64, mealID string) error {
	msg := tgbotapi.NewMessage(chatID, "Delete this meal for good?")
	msg.ReplyMarkup = keyboards.ConfirmDelete(mealID)
	_, err := api.Send(msg)
	return err
}

// SendError surfaces a failure as a dismissable banner message. Previously
// rendered results stay in the chat above it.
func SendError(api *tgbotapi.BotAPI, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	_, err := api.Send(msg)
	return err
}

func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer("*", "\\*", "_", "\\_", "`", "\\`", "[", "\\[")
	return replacer.Replace(s)
}
