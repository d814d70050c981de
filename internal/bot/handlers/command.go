package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nutrisnap/nutrisnap/internal/bot/menus"
	"github.com/nutrisnap/nutrisnap/internal/bot/state"
	"github.com/nutrisnap/nutrisnap/internal/domain"
	"github.com/nutrisnap/nutrisnap/internal/logger"
)

// CommandHandler handles bot commands
type CommandHandler struct {
	api          *tgbotapi.BotAPI
	deps         Dependencies
	stateManager state.StateManager
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(api *tgbotapi.BotAPI, deps Dependencies, stateManager state.StateManager) *CommandHandler {
	return &CommandHandler{
		api:          api,
		deps:         deps,
		stateManager: stateManager,
	}
}

// Handle processes a command message
func (h *CommandHandler) Handle(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	logger.Infof("Handling command %s from chat %d", message.Command(), chatID)

	sess := h.deps.Sessions.ForChat(ctx, chatID)

	switch message.Command() {
	case "start":
		h.stateManager.SetUserState(chatID, state.None)
		sess.SetView(domain.ViewHome)
		return menus.SendHomeView(h.api, chatID, sess.LoggedIn(), sess.Username(), sess.Meals().History())
	case "history":
		sess.SetView(domain.ViewHistory)
		return menus.SendHistoryView(h.api, chatID, sess.Meals().History())
	case "help":
		return h.handleHelp(chatID)
	default:
		return h.handleUnknownCommand(chatID)
	}
}

func (h *CommandHandler) handleHelp(chatID int64) error {
	text := `Available commands:
/start - Show the home screen
/history - Show your full meal history
/help - Show this message

Just type what you ate (e.g. "2 eggs and toast") and I'll estimate the calories and macros. Tap a meal to edit its items, add new ones or delete it.`

	msg := tgbotapi.NewMessage(chatID, text)
	_, err := h.api.Send(msg)
	return err
}

func (h *CommandHandler) handleUnknownCommand(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "Unknown command. Use /help to see what I can do.")
	_, err := h.api.Send(msg)
	return err
}
