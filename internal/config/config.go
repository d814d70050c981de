package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/nutrisnap/nutrisnap/internal/logger"
)

type Config struct {
	TelegramToken string
	AI            AIConfig
	Storage       StorageConfig
	State         StateConfig
	Logger        LoggerConfig
}

type AIConfig struct {
	Provider     string // "gemini" or "openai"
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
}

type StorageConfig struct {
	Driver     string // "sqlite", "postgres" or "memory"
	SQLitePath string
	DB         DBConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type StateConfig struct {
	Backend   string // "memory" or "redis"
	RedisHost string
	RedisPort string
}

type LoggerConfig struct {
	Level      logger.LogLevel
	OutputPath string
	Format     string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.LevelDebug
	case "info":
		return logger.LevelInfo
	case "warn", "warning":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	default:
		return logger.LevelInfo
	}
}

func Load() (*Config, error) {
	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		AI: AIConfig{
			Provider:     strings.ToLower(getEnvOrDefault("AI_PROVIDER", "gemini")),
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
			GeminiModel:  getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
			OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		},
		Storage: StorageConfig{
			Driver:     strings.ToLower(getEnvOrDefault("STORAGE_DRIVER", "sqlite")),
			SQLitePath: getEnvOrDefault("SQLITE_PATH", "data/nutrisnap.db"),
			DB: DBConfig{
				Host:     getEnvOrDefault("DB_HOST", "localhost"),
				Port:     getEnvOrDefault("DB_PORT", "5432"),
				User:     getEnvOrDefault("DB_USER", "postgres"),
				Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
				DBName:   getEnvOrDefault("DB_NAME", "nutrisnap"),
			},
		},
		State: StateConfig{
			Backend:   strings.ToLower(getEnvOrDefault("STATE_BACKEND", "memory")),
			RedisHost: getEnvOrDefault("REDIS_HOST", "localhost"),
			RedisPort: getEnvOrDefault("REDIS_PORT", "6379"),
		},
		Logger: LoggerConfig{
			Level:      parseLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
			OutputPath: getEnvOrDefault("LOG_OUTPUT", "logs/app.log"),
			Format:     getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	switch c.AI.Provider {
	case "gemini":
		if c.AI.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when AI_PROVIDER=gemini")
		}
	case "openai":
		if c.AI.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("unknown AI_PROVIDER %q", c.AI.Provider)
	}

	switch c.Storage.Driver {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}

	switch c.State.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown STATE_BACKEND %q", c.State.Backend)
	}

	return nil
}
