package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the tracker.
type Config struct {
	TelegramToken  string
	DatabaseURL    string
	ReportInterval time.Duration
	ReportAt       string
	ReportChatID   int64
	LogLevel       string
	LogFormat      string
}

// Load reads configuration from environment variables with sane defaults.
// Values from a .env file in the working directory are used when the
// variable is not already set.
func Load() (Config, error) {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit dotenv path. A missing file is not an error.
func LoadFrom(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Config{
		TelegramToken:  strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:    getEnv("DATABASE_URL", "tasks.db"),
		ReportInterval: parseInterval(strings.TrimSpace(os.Getenv("REPORT_INTERVAL_HOURS"))),
		ReportAt:       strings.TrimSpace(os.Getenv("REPORT_AT")),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", "json")),
	}

	if raw := strings.TrimSpace(os.Getenv("REPORT_CHAT_ID")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("REPORT_CHAT_ID must be a chat id, got %q", raw)
		}
		cfg.ReportChatID = id
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}

// ReportsEnabled reports whether a digest chat and a schedule are configured.
func (c Config) ReportsEnabled() bool {
	return c.ReportChatID != 0 && (c.ReportInterval > 0 || c.ReportAt != "")
}

// ScheduleWithoutChat reports whether a digest schedule is set but there is no chat to send it to.
func (c Config) ScheduleWithoutChat() bool {
	return c.ReportChatID == 0 && (c.ReportInterval > 0 || c.ReportAt != "")
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}
