package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "PORT", "LOG_LEVEL", "AUTO_MIGRATE", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "SHUTDOWN_TIMEOUT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()

	assert.Contains(t, cfg.DatabaseURL, "/settleup?")
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, 25, cfg.MaxOpenConns)
	assert.Equal(t, 5, cfg.MaxIdleConns)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/ledger?sslmode=disable")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("DB_MAX_OPEN_CONNS", "50")
	t.Setenv("DB_MAX_IDLE_CONNS", "10")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg := Load()

	assert.Equal(t, "postgres://u:p@db:5432/ledger?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, 50, cfg.MaxOpenConns)
	assert.Equal(t, 10, cfg.MaxIdleConns)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("AUTO_MIGRATE", "sometimes")
	t.Setenv("DB_MAX_OPEN_CONNS", "-1")
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")

	cfg := Load()

	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, 25, cfg.MaxOpenConns)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}
