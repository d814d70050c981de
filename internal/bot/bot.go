package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nutrisnap/nutrisnap/internal/bot/handlers"
	"github.com/nutrisnap/nutrisnap/internal/bot/state"
	"github.com/nutrisnap/nutrisnap/internal/logger"
	"github.com/nutrisnap/nutrisnap/internal/session"
)

// Bot is the telegram front-end: one chat is one session, the three views
// (home, history, login) are menus.
type Bot struct {
	api     *tgbotapi.BotAPI
	handler *handlers.UpdateHandler
}

func NewBot(token string, sessions *session.Manager, stateManager state.StateManager) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Infof("Bot authorized on account %s", api.Self.UserName)

	deps := handlers.Dependencies{Sessions: sessions}
	return &Bot{
		api:     api,
		handler: handlers.NewUpdateHandler(api, deps, stateManager),
	}, nil
}

// Start runs the update loop until the context is cancelled. Handler errors
// are logged and never stop the loop.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	logger.Info("Bot is now listening for updates")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Bot is shutting down")
			return ctx.Err()
		case update := <-updates:
			if err := b.handler.Handle(ctx, update); err != nil {
				logger.Error("Error handling update", "error", err)
			}
		}
	}
}
