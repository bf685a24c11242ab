package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"TELEGRAM_TOKEN", "DATABASE_URL", "REPORT_INTERVAL_HOURS", "REPORT_AT",
	"REPORT_CHAT_ID", "LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv unsets every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadFrom_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", " token ")

	cfg, err := LoadFrom("")
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.TelegramToken)
	assert.Equal(t, "tasks.db", cfg.DatabaseURL)
	assert.Zero(t, cfg.ReportInterval)
	assert.Zero(t, cfg.ReportChatID)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.ReportsEnabled())
}

func TestLoadFrom_RequiresToken(t *testing.T) {
	clearEnv(t)

	_, err := LoadFrom("")
	assert.EqualError(t, err, "TELEGRAM_TOKEN is required")
}

func TestLoadFrom_Values(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("DATABASE_URL", "/var/lib/tasks/tasks.db")
	t.Setenv("REPORT_INTERVAL_HOURS", "6")
	t.Setenv("REPORT_CHAT_ID", "-100123")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := LoadFrom("")
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/tasks/tasks.db", cfg.DatabaseURL)
	assert.Equal(t, 6*time.Hour, cfg.ReportInterval)
	assert.Equal(t, int64(-100123), cfg.ReportChatID)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.ReportsEnabled())
}

func TestLoadFrom_BadChatID(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("REPORT_CHAT_ID", "me")

	_, err := LoadFrom("")
	assert.Error(t, err)
}

func TestLoadFrom_DotEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TELEGRAM_TOKEN=from-file\nREPORT_AT=08:30\nREPORT_CHAT_ID=42\n"), 0o600))
	t.Setenv("DATABASE_URL", "env-wins.db")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.TelegramToken)
	assert.Equal(t, "08:30", cfg.ReportAt)
	assert.Equal(t, "env-wins.db", cfg.DatabaseURL)
	assert.True(t, cfg.ReportsEnabled())
}

func TestLoadFrom_MissingDotEnvIsFine(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "token")

	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestParseInterval(t *testing.T) {
	assert.Equal(t, time.Duration(0), parseInterval(""))
	assert.Equal(t, time.Duration(0), parseInterval("-2"))
	assert.Equal(t, time.Duration(0), parseInterval("abc"))
	assert.Equal(t, 90*time.Minute, parseInterval("1.5"))
}

func TestConfig_ScheduleWithoutChat(t *testing.T) {
	assert.False(t, Config{}.ScheduleWithoutChat())
	assert.True(t, Config{ReportAt: "09:00"}.ScheduleWithoutChat())
	assert.True(t, Config{ReportInterval: time.Hour}.ScheduleWithoutChat())
	assert.False(t, Config{ReportAt: "09:00", ReportChatID: 42}.ScheduleWithoutChat())
	assert.False(t, Config{ReportChatID: 42}.ScheduleWithoutChat())
}
