package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nutrisnap/nutrisnap/internal/bot/menus"
	"github.com/nutrisnap/nutrisnap/internal/bot/state"
	apperrors "github.com/nutrisnap/nutrisnap/internal/errors"
	"github.com/nutrisnap/nutrisnap/internal/logger"
	"github.com/nutrisnap/nutrisnap/internal/session"
)

// TextHandler handles text messages
type TextHandler struct {
	api          *tgbotapi.BotAPI
	deps         Dependencies
	stateManager state.StateManager
}

// NewTextHandler creates a new text handler
func NewTextHandler(api *tgbotapi.BotAPI, deps Dependencies, stateManager state.StateManager) *TextHandler {
	return &TextHandler{
		api:          api,
		deps:         deps,
		stateManager: stateManager,
	}
}

// Handle processes a text message according to the chat's input state. Text
// with no pending state is treated as a meal description, the home view's
// primary action.
func (h *TextHandler) Handle(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	sess := h.deps.Sessions.ForChat(ctx, chatID)
	chatState := h.stateManager.GetUserState(chatID)

	switch chatState {
	case state.WaitingForDate:
		return h.handleDateInput(chatID, message.Text)
	case state.WaitingForItemQuantity:
		return h.handleItemQuantity(ctx, chatID, sess, message.Text)
	case state.WaitingForNewItem:
		return h.handleNewItem(ctx, chatID, sess, message.Text)
	case state.WaitingForLoginUsername:
		return h.handleLoginUsername(chatID, message.Text)
	case state.WaitingForLoginPassword:
		return h.handleLoginPassword(ctx, chatID, sess, message.Text)
	case state.WaitingForRegisterUsername:
		return h.handleRegisterUsername(chatID, message.Text)
	case state.WaitingForRegisterPassword:
		return h.handleRegisterPassword(ctx, chatID, sess, message.Text)
	default:
		// WaitingForMealText and the idle state both analyze.
		return h.handleMealText(ctx, chatID, sess, message.Text)
	}
}

func (h *TextHandler) handleMealText(ctx context.Context, chatID int64, sess *session.Session, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		msg := tgbotapi.NewMessage(chatID, "Tell me what you ate first.")
		_, err := h.api.Send(msg)
		return err
	}

	h.stateManager.SetUserState(chatID, state.None)

	typing := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	if _, err := h.api.Request(typing); err != nil {
		logger.Debug("Failed to send typing action", "error", err)
	}

	meal, err := sess.Meals().Create(ctx, text, h.selectedDate(chatID))
	if err != nil {
		logger.Warn("Meal analysis failed", "chat_id", chatID, "error", err)
		return menus.SendError(h.api, chatID, "Analysis failed. Please try again.")
	}
	if meal == nil {
		return nil
	}

	return menus.SendMealCard(h.api, chatID, meal)
}

func (h *TextHandler) handleDateInput(chatID int64, text string) error {
	date, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(text), time.Local)
	if err != nil {
		msg := tgbotapi.NewMessage(chatID, "That doesn't look like a date. Use YYYY-MM-DD (e.g. 2026-08-28).")
		_, err := h.api.Send(msg)
		return err
	}

	h.stateManager.SetTempData(chatID, state.TempSelectedDate, date.Format("2006-01-02"))
	h.stateManager.SetUserState(chatID, state.None)

	msg := tgbotapi.NewMessage(chatID, "New entries will be logged for "+date.Format("Mon, Jan 2")+".")
	_, err = h.api.Send(msg)
	return err
}

func (h *TextHandler) handleItemQuantity(ctx context.Context, chatID int64, sess *session.Session, text string) error {
	mealID, _ := h.stateManager.GetTempData(chatID, state.TempEditMealID)
	indexStr, _ := h.stateManager.GetTempData(chatID, state.TempEditItemIndex)
	index, err := strconv.Atoi(indexStr)
	if mealID == "" || err != nil {
		h.stateManager.SetUserState(chatID, state.None)
		return nil
	}

	h.stateManager.SetUserState(chatID, state.None)

	if err := sess.Meals().UpdateItem(ctx, mealID, index, strings.TrimSpace(text)); err != nil {
		logger.Warn("Item update failed", "chat_id", chatID, "meal_id", mealID, "error", err)
		return menus.SendError(h.api, chatID, "Could not update that item; it was left unchanged.")
	}

	meal := sess.Meals().SelectMeal(mealID)
	if meal == nil {
		return nil
	}
	return menus.SendMealCard(h.api, chatID, meal)
}

func (h *TextHandler) handleNewItem(ctx context.Context, chatID int64, sess *session.Session, text string) error {
	mealID, _ := h.stateManager.GetTempData(chatID, state.TempEditMealID)
	if mealID == "" {
		h.stateManager.SetUserState(chatID, state.None)
		return nil
	}

	name, quantity, ok := splitItemInput(text)
	if !ok {
		msg := tgbotapi.NewMessage(chatID, "Send the item as: name | quantity (e.g. \"orange juice | 1 glass\").")
		_, err := h.api.Send(msg)
		return err
	}

	h.stateManager.SetUserState(chatID, state.None)

	if err := sess.Meals().AddItem(ctx, mealID, name, quantity); err != nil {
		logger.Warn("Item add failed", "chat_id", chatID, "meal_id", mealID, "error", err)
		return menus.SendError(h.api, chatID, "Could not add that item; the meal was left unchanged.")
	}

	meal := sess.Meals().SelectMeal(mealID)
	if meal == nil {
		return nil
	}
	return menus.SendMealCard(h.api, chatID, meal)
}

func (h *TextHandler) handleLoginUsername(chatID int64, text string) error {
	h.stateManager.SetTempData(chatID, state.TempLoginUsername, strings.TrimSpace(text))
	h.stateManager.SetUserState(chatID, state.WaitingForLoginPassword)
	msg := tgbotapi.NewMessage(chatID, "Your password:")
	_, err := h.api.Send(msg)
	return err
}

func (h *TextHandler) handleLoginPassword(ctx context.Context, chatID int64, sess *session.Session, text string) error {
	username, _ := h.stateManager.GetTempData(chatID, state.TempLoginUsername)
	h.stateManager.SetUserState(chatID, state.None)

	if err := sess.Login(ctx, username, text); err != nil {
		// Same message for unknown user and wrong password.
		return menus.SendError(h.api, chatID, "Invalid username or password.")
	}

	msg := tgbotapi.NewMessage(chatID, "Welcome back, "+sess.Username()+"!")
	if _, err := h.api.Send(msg); err != nil {
		return err
	}
	return menus.SendHomeView(h.api, chatID, true, sess.Username(), sess.Meals().History())
}

func (h *TextHandler) handleRegisterUsername(chatID int64, text string) error {
	username := strings.TrimSpace(text)
	if username == "" {
		msg := tgbotapi.NewMessage(chatID, "Username can't be empty. Pick a username:")
		_, err := h.api.Send(msg)
		return err
	}

	h.stateManager.SetTempData(chatID, state.TempRegisterUsername, username)
	h.stateManager.SetUserState(chatID, state.WaitingForRegisterPassword)
	msg := tgbotapi.NewMessage(chatID, "Pick a password:")
	_, err := h.api.Send(msg)
	return err
}

func (h *TextHandler) handleRegisterPassword(ctx context.Context, chatID int64, sess *session.Session, text string) error {
	username, _ := h.stateManager.GetTempData(chatID, state.TempRegisterUsername)
	h.stateManager.SetUserState(chatID, state.None)

	if err := sess.Register(ctx, username, text); err != nil {
		logger.Warn("Registration failed", "chat_id", chatID, "error", err)
		return menus.SendError(h.api, chatID, registerFailureMessage(err))
	}

	msg := tgbotapi.NewMessage(chatID, "Account created. You can log in now.")
	if _, err := h.api.Send(msg); err != nil {
		return err
	}
	return menus.SendLoginMenu(h.api, chatID)
}

// registerFailureMessage maps a registration error to user-facing text.
// Only the duplicate-username case is named; storage and other internal
// failures get a generic message.
func registerFailureMessage(err error) string {
	if errors.Is(err, apperrors.ErrUsernameTaken) {
		return "Username already taken. Pick another one."
	}
	return "Registration failed. Please try again."
}

// splitItemInput parses "name | quantity", falling back to a comma
// separator.
func splitItemInput(text string) (name, quantity string, ok bool) {
	sep := "|"
	if !strings.Contains(text, sep) {
		sep = ","
	}
	parts := strings.SplitN(text, sep, 2)
	if len(parts) != 2 {
		return "", "", false
	}
	name = strings.TrimSpace(parts[0])
	quantity = strings.TrimSpace(parts[1])
	if name == "" || quantity == "" {
		return "", "", false
	}
	return name, quantity, true
}

func (h *TextHandler) selectedDate(chatID int64) time.Time {
	if raw, ok := h.stateManager.GetTempData(chatID, state.TempSelectedDate); ok {
		if d, err := time.ParseInLocation("2006-01-02", raw, time.Local); err == nil {
			return d
		}
	}
	return time.Now()
}
