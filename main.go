package main

import (
	"context"
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"

	"github.com/nutrisnap/nutrisnap/internal/bot"
	"github.com/nutrisnap/nutrisnap/internal/bot/state"
	"github.com/nutrisnap/nutrisnap/internal/config"
	"github.com/nutrisnap/nutrisnap/internal/logger"
	"github.com/nutrisnap/nutrisnap/internal/services"
	"github.com/nutrisnap/nutrisnap/internal/session"
	"github.com/nutrisnap/nutrisnap/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.InitWithConfig(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logger.Info("Starting NutriSnap bot")

	kv, err := newKV(cfg)
	if err != nil {
		logger.Fatalf("Failed to open storage: %v", err)
	}
	defer kv.Close()
	logger.Info("Storage ready", "driver", cfg.Storage.Driver)

	ctx := context.Background()

	aiService, err := services.NewAIService(ctx, services.AIConfig{
		Provider:     cfg.AI.Provider,
		GeminiAPIKey: cfg.AI.GeminiAPIKey,
		GeminiModel:  cfg.AI.GeminiModel,
		OpenAIAPIKey: cfg.AI.OpenAIAPIKey,
	})
	if err != nil {
		logger.Fatalf("Failed to create AI service: %v", err)
	}

	ledger := services.NewLedgerService(kv)
	creds := services.NewAuthService(kv)
	sessions := session.NewManager(kv, creds, ledger, func() *services.MealService {
		return services.NewMealService(aiService, ledger)
	})
	logger.Info("Services initialized")

	stateManager, err := newStateManager(cfg)
	if err != nil {
		logger.Fatalf("Failed to create state manager: %v", err)
	}

	telegramBot, err := bot.NewBot(cfg.TelegramToken, sessions, stateManager)
	if err != nil {
		logger.Fatalf("Failed to create bot: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := telegramBot.Start(ctx); err != nil {
			logger.Error("Bot stopped with error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("Bot is running. Press Ctrl+C to stop.")
	wg.Wait()
}

func newKV(cfg *config.Config) (storage.KV, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		return storage.NewPostgresKV(cfg.Storage.DB)
	case "memory":
		return storage.NewMemoryKV(), nil
	default:
		return storage.NewSQLiteKV(cfg.Storage.SQLitePath)
	}
}

func newStateManager(cfg *config.Config) (state.StateManager, error) {
	if cfg.State.Backend == "redis" {
		return state.NewRedisManager(cfg.State.RedisHost, cfg.State.RedisPort)
	}
	return state.NewManager(), nil
}
