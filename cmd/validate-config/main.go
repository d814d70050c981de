package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/nutrisnap/nutrisnap/internal/config"
)

func main() {
	fmt.Println("🔍 Validating configuration...")

	if err := godotenv.Load(); err != nil {
		fmt.Printf("⚠️  .env file not found: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Configuration is invalid:\n%v\n", err)
		os.Exit(1)
	}

	fmt.Println("✅ Configuration is valid!")
	fmt.Printf("📋 Details:\n")
	fmt.Printf("  - Telegram Token: %s\n", maskToken(cfg.TelegramToken))
	fmt.Printf("  - AI Provider: %s\n", cfg.AI.Provider)
	fmt.Printf("  - Gemini API Key: %s\n", maskToken(cfg.AI.GeminiAPIKey))
	fmt.Printf("  - Gemini Model: %s\n", cfg.AI.GeminiModel)
	fmt.Printf("  - OpenAI API Key: %s\n", maskToken(cfg.AI.OpenAIAPIKey))
	fmt.Printf("  - Storage Driver: %s\n", cfg.Storage.Driver)
	if cfg.Storage.Driver == "sqlite" {
		fmt.Printf("  - SQLite Path: %s\n", cfg.Storage.SQLitePath)
	}
	if cfg.Storage.Driver == "postgres" {
		fmt.Printf("  - DB Host: %s\n", cfg.Storage.DB.Host)
		fmt.Printf("  - DB Port: %s\n", cfg.Storage.DB.Port)
		fmt.Printf("  - DB Name: %s\n", cfg.Storage.DB.DBName)
	}
	fmt.Printf("  - State Backend: %s\n", cfg.State.Backend)
	fmt.Printf("  - Log Level: %v\n", cfg.Logger.Level)
	fmt.Printf("  - Log Output: %s\n", cfg.Logger.OutputPath)
	fmt.Printf("  - Log Format: %s\n", cfg.Logger.Format)
}

func maskToken(token string) string {
	if token == "" {
		return "<not set>"
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
