package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requiredEnv(t *testing.T) {
	t.Setenv("WEEKSTATUS_TELEGRAM_TOKEN", "123:abc")
	t.Setenv("WEEKSTATUS_TELEGRAM_ADMINCHATID", "42")
}

func TestLoad_Defaults(t *testing.T) {
	requiredEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	require.NoError(t, err)
	assert.Equal(t, ":8181", cfg.Host)
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, int64(42), cfg.Telegram.AdminChatId)
	assert.Equal(t, "1403/11/20", cfg.Week.ReferenceDate)
	assert.Equal(t, "odd", cfg.Week.ReferenceParity)
	assert.Equal(t, "Asia/Tehran", cfg.Week.Timezone)
	assert.Equal(t, 25, cfg.Broadcast.BatchSize)
	assert.Equal(t, 1100*time.Millisecond, cfg.Broadcast.BatchDelay)
	assert.Equal(t, 15*time.Minute, cfg.Broadcast.StateTTL)
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestLoad_FileThenEnv(t *testing.T) {
	requiredEnv(t)
	path := filepath.Join(t.TempDir(), "application.yaml")
	yaml := []byte(`
host: ":9000"
week:
  referencedate: "1404/07/05"
  referenceparity: even
db:
  host: db.internal
`)
	require.NoError(t, os.WriteFile(path, yaml, 0o600))
	t.Setenv("WEEKSTATUS_DB_HOST", "db.override")
	t.Setenv("WEEKSTATUS_BROADCAST_BATCHDELAY", "2s")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Host)
	assert.Equal(t, "1404/07/05", cfg.Week.ReferenceDate)
	assert.Equal(t, "even", cfg.Week.ReferenceParity)
	assert.Equal(t, "db.override", cfg.Database.Host)
	assert.Equal(t, 2*time.Second, cfg.Broadcast.BatchDelay)
}

func TestLoad_MissingToken(t *testing.T) {
	t.Setenv("WEEKSTATUS_TELEGRAM_ADMINCHATID", "42")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	assert.ErrorIs(t, err, ErrMissingSetting)
}

func TestLoad_MissingAdmin(t *testing.T) {
	t.Setenv("WEEKSTATUS_TELEGRAM_TOKEN", "123:abc")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	assert.ErrorIs(t, err, ErrMissingSetting)
}

func TestWeek_Location(t *testing.T) {
	loc, err := Week{Timezone: "UTC"}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = Week{Timezone: "Mars/Olympus"}.Location()
	assert.Error(t, err)
}
