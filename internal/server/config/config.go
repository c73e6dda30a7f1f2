package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Значения по умолчанию
const (
	DefaultPort         = 9000
	DefaultDatabasePath = "dimension.db"
	DefaultRateLimit    = 120
	DefaultRateWindow   = time.Minute
)

// Config содержит конфигурацию сервера, собранную из переменных окружения
type Config struct {
	DatabasePath string        // DATABASE_PATH путь к файлу SQLite
	LogFormat    string        // LOG_FORMAT "text" или "json"
	LogLevel     slog.Level    // LOG_LEVEL debug|info|warn|error
	Port         int           // PORT порт HTTP сервера
	RateLimit    int           // RATE_LIMIT максимум push/pull запросов на окно
	RateWindow   time.Duration // RATE_WINDOW окно rate limiter'а
}

// Addr возвращает адрес для http.Server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Load читает конфигурацию из переменных окружения.
// Отсутствующие переменные получают значения по умолчанию,
// некорректные — ошибку.
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath: DefaultDatabasePath,
		LogFormat:    "text",
		LogLevel:     slog.LevelInfo,
		Port:         DefaultPort,
		RateLimit:    DefaultRateLimit,
		RateWindow:   DefaultRateWindow,
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}

	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		if v != "text" && v != "json" {
			return nil, fmt.Errorf("invalid LOG_FORMAT %q: want \"text\" or \"json\"", v)
		}
		cfg.LogFormat = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", v, err)
		}
		cfg.LogLevel = level
	}

	if v := os.Getenv("RATE_LIMIT"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT %q: %w", v, err)
		}
		cfg.RateLimit = limit
	}

	if v := os.Getenv("RATE_WINDOW"); v != "" {
		window, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_WINDOW %q: %w", v, err)
		}
		cfg.RateWindow = window
	}

	return cfg, nil
}

// NewLogger создает slog.Logger согласно конфигурации
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}

	var handler slog.Handler
	if c.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
