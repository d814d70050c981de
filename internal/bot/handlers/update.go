package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nutrisnap/nutrisnap/internal/bot/state"
)

// UpdateHandler routes telegram updates to the command, callback and text
// handlers.
type UpdateHandler struct {
	api             *tgbotapi.BotAPI
	deps            Dependencies
	stateManager    state.StateManager
	callbackHandler *CallbackHandler
	commandHandler  *CommandHandler
	textHandler     *TextHandler
}

// NewUpdateHandler creates a new update handler
func NewUpdateHandler(api *tgbotapi.BotAPI, deps Dependencies, stateManager state.StateManager) *UpdateHandler {
	return &UpdateHandler{
		api:             api,
		deps:            deps,
		stateManager:    stateManager,
		callbackHandler: NewCallbackHandler(api, deps, stateManager),
		commandHandler:  NewCommandHandler(api, deps, stateManager),
		textHandler:     NewTextHandler(api, deps, stateManager),
	}
}

// Handle processes a telegram update
func (h *UpdateHandler) Handle(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		return h.callbackHandler.Handle(ctx, update.CallbackQuery)
	}

	if update.Message != nil {
		if update.Message.IsCommand() {
			return h.commandHandler.Handle(ctx, update.Message)
		}
		if update.Message.Text != "" {
			return h.textHandler.Handle(ctx, update.Message)
		}
	}

	return nil
}
