package handlers

import (
	"context"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nutrisnap/nutrisnap/internal/bot/menus"
	"github.com/nutrisnap/nutrisnap/internal/bot/state"
	"github.com/nutrisnap/nutrisnap/internal/domain"
	"github.com/nutrisnap/nutrisnap/internal/session"
)

// CallbackHandler handles inline keyboard callbacks
type CallbackHandler struct {
	api          *tgbotapi.BotAPI
	deps         Dependencies
	stateManager state.StateManager
}

// NewCallbackHandler creates a new callback handler
func NewCallbackHandler(api *tgbotapi.BotAPI, deps Dependencies, stateManager state.StateManager) *CallbackHandler {
	return &CallbackHandler{
		api:          api,
		deps:         deps,
		stateManager: stateManager,
	}
}

// Handle processes a callback query
func (h *CallbackHandler) Handle(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	// Answer the callback query first
	callback := tgbotapi.NewCallback(query.ID, "")
	if _, err := h.api.Request(callback); err != nil {
		return err
	}

	chatID := query.Message.Chat.ID
	sess := h.deps.Sessions.ForChat(ctx, chatID)

	switch query.Data {
	case "analyze_meal":
		return h.handleAnalyzeMeal(chatID)
	case "pick_date":
		return menus.SendDateMenu(h.api, chatID, h.selectedDate(chatID))
	case "date_today":
		return h.handleDateChoice(chatID, time.Now())
	case "date_yesterday":
		return h.handleDateChoice(chatID, time.Now().AddDate(0, 0, -1))
	case "date_custom":
		h.stateManager.SetUserState(chatID, state.WaitingForDate)
		msg := tgbotapi.NewMessage(chatID, "Send the date as YYYY-MM-DD (e.g. 2026-08-28).")
		_, err := h.api.Send(msg)
		return err
	case "view_home":
		h.stateManager.SetUserState(chatID, state.None)
		sess.SetView(domain.ViewHome)
		return menus.SendHomeView(h.api, chatID, sess.LoggedIn(), sess.Username(), sess.Meals().History())
	case "view_history":
		sess.SetView(domain.ViewHistory)
		return menus.SendHistoryView(h.api, chatID, sess.Meals().History())
	case "view_login":
		sess.SetView(domain.ViewLogin)
		return menus.SendLoginMenu(h.api, chatID)
	case "login":
		h.stateManager.SetUserState(chatID, state.WaitingForLoginUsername)
		msg := tgbotapi.NewMessage(chatID, "Your username:")
		_, err := h.api.Send(msg)
		return err
	case "register":
		h.stateManager.SetUserState(chatID, state.WaitingForRegisterUsername)
		msg := tgbotapi.NewMessage(chatID, "Pick a username:")
		_, err := h.api.Send(msg)
		return err
	case "logout":
		return h.handleLogout(ctx, chatID, sess)
	}

	// Prefixed callbacks carry a meal id (and possibly an item index).
	parts := strings.Split(query.Data, ":")
	switch parts[0] {
	case "meal":
		if len(parts) == 2 {
			return h.handleSelectMeal(chatID, sess, parts[1])
		}
	case "edit":
		if len(parts) == 3 {
			return h.handleEditItem(chatID, sess, parts[1], parts[2])
		}
	case "delitem":
		if len(parts) == 3 {
			return h.handleDeleteItem(ctx, chatID, sess, parts[1], parts[2])
		}
	case "additem":
		if len(parts) == 2 {
			return h.handleAddItem(chatID, parts[1])
		}
	case "delmeal":
		if len(parts) == 2 {
			return menus.SendConfirmDelete(h.api, chatID, parts[1])
		}
	case "confirmdel":
		if len(parts) == 2 {
			return h.handleConfirmDelete(ctx, chatID, sess, parts[1])
		}
	}

	return nil
}

func (h *CallbackHandler) handleAnalyzeMeal(chatID int64) error {
	h.stateManager.SetUserState(chatID, state.WaitingForMealText)
	selected := h.selectedDate(chatID)
	msg := tgbotapi.NewMessage(chatID,
		"Describe your meal (e.g. \"2 eggs, toast with butter and a glass of orange juice\"). It will be logged for "+selected.Format("Mon, Jan 2")+".")
	_, err := h.api.Send(msg)
	return err
}

func (h *CallbackHandler) handleDateChoice(chatID int64, date time.Time) error {
	h.stateManager.SetTempData(chatID, state.TempSelectedDate, date.Format("2006-01-02"))
	msg := tgbotapi.NewMessage(chatID, "New entries will be logged for "+date.Format("Mon, Jan 2")+".")
	_, err := h.api.Send(msg)
	return err
}

func (h *CallbackHandler) handleLogout(ctx context.Context, chatID int64, sess *session.Session) error {
	sess.Logout(ctx)
	h.stateManager.SetUserState(chatID, state.None)
	h.stateManager.ClearTempData(chatID)
	msg := tgbotapi.NewMessage(chatID, "Logged out. Your saved history stays on your account.")
	if _, err := h.api.Send(msg); err != nil {
		return err
	}
	return menus.SendHomeView(h.api, chatID, false, "", nil)
}

func (h *CallbackHandler) handleSelectMeal(chatID int64, sess *session.Session, mealID string) error {
	meal := sess.Meals().SelectMeal(mealID)
	if meal == nil {
		return menus.SendError(h.api, chatID, "That meal is no longer in your history.")
	}
	return menus.SendMealCard(h.api, chatID, meal)
}

func (h *CallbackHandler) handleEditItem(chatID int64, sess *session.Session, mealID, indexStr string) error {
	index, err := strconv.Atoi(indexStr)
	if err != nil {
		return nil
	}

	meal := sess.Meals().SelectMeal(mealID)
	if meal == nil || index < 0 || index >= len(meal.FoodItems) {
		return menus.SendError(h.api, chatID, "That item is no longer there.")
	}

	h.stateManager.SetTempData(chatID, state.TempEditMealID, mealID)
	h.stateManager.SetTempData(chatID, state.TempEditItemIndex, indexStr)
	h.stateManager.SetUserState(chatID, state.WaitingForItemQuantity)

	item := meal.FoodItems[index]
	msg := tgbotapi.NewMessage(chatID,
		"New quantity for \""+item.Name+"\" (currently \""+item.Quantity+"\"):")
	_, err = h.api.Send(msg)
	return err
}

func (h *CallbackHandler) handleDeleteItem(ctx context.Context, chatID int64, sess *session.Session, mealID, indexStr string) error {
	index, err := strconv.Atoi(indexStr)
	if err != nil {
		return nil
	}

	if err := sess.Meals().DeleteItem(ctx, mealID, index); err != nil {
		return menus.SendError(h.api, chatID, "Could not remove that item.")
	}

	meal := sess.Meals().SelectMeal(mealID)
	if meal == nil {
		return nil
	}
	return menus.SendMealCard(h.api, chatID, meal)
}

func (h *CallbackHandler) handleAddItem(chatID int64, mealID string) error {
	h.stateManager.SetTempData(chatID, state.TempEditMealID, mealID)
	h.stateManager.SetUserState(chatID, state.WaitingForNewItem)
	msg := tgbotapi.NewMessage(chatID, "Send the new item as: name | quantity (e.g. \"orange juice | 1 glass\").")
	_, err := h.api.Send(msg)
	return err
}

func (h *CallbackHandler) handleConfirmDelete(ctx context.Context, chatID int64, sess *session.Session, mealID string) error {
	if err := sess.Meals().DeleteMeal(ctx, mealID); err != nil {
		return menus.SendError(h.api, chatID, "Could not delete that meal.")
	}
	msg := tgbotapi.NewMessage(chatID, "Meal deleted.")
	if _, err := h.api.Send(msg); err != nil {
		return err
	}
	return menus.SendHomeView(h.api, chatID, sess.LoggedIn(), sess.Username(), sess.Meals().History())
}

// selectedDate returns the chat's chosen log date, defaulting to today.
func (h *CallbackHandler) selectedDate(chatID int64) time.Time {
	if raw, ok := h.stateManager.GetTempData(chatID, state.TempSelectedDate); ok {
		if d, err := time.ParseInLocation("2006-01-02", raw, time.Local); err == nil {
			return d
		}
	}
	return time.Now()
}
