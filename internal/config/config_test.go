package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Database.URL = "postgres://localhost/cashcheck"
	cfg.Session.ID = "household"
	cfg.Import.RulesFile = "rules.yaml"
	cfg.Transfers.WindowDays = 5

	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Database.URL, got.Database.URL)
	assert.Equal(t, "household", got.Session.ID)
	assert.Equal(t, "America/Los_Angeles", got.Import.Timezone)
	assert.Equal(t, "rules.yaml", got.Import.RulesFile)
	assert.Equal(t, 5, got.Transfers.WindowDays)
	assert.Equal(t, cfg.Server, got.Server)
	assert.Equal(t, "info", got.Log.Level)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, "default", cfg.Session.ID)
	assert.Equal(t, "America/Los_Angeles", cfg.Import.Timezone)
	assert.Equal(t, "import", cfg.Import.Dir)
	assert.Equal(t, 3, cfg.Transfers.WindowDays)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("session:\n  id: s9\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "s9", cfg.Session.ID)
	assert.Equal(t, 3, cfg.Transfers.WindowDays)
	assert.Equal(t, "import", cfg.Import.Dir)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestYAMLFormat(t *testing.T) {
	cfg := Default()
	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "timezone: America/Los_Angeles")
	assert.Contains(t, contents, "window_days: 3")
	assert.Contains(t, contents, "addr:")
	assert.NotContains(t, contents, "url:")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CASHCHECK_DATABASE_URL", "postgres://db/cc")
	t.Setenv("CASHCHECK_SESSION_ID", "env-session")
	t.Setenv("CASHCHECK_TIMEZONE", "UTC")
	t.Setenv("CASHCHECK_ADDR", ":9000")
	t.Setenv("CASHCHECK_TRANSFER_WINDOW_DAYS", "7")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, "postgres://db/cc", cfg.Database.URL)
	assert.Equal(t, "env-session", cfg.Session.ID)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 7, cfg.Transfers.WindowDays)
	assert.Equal(t, "debug", cfg.Log.Level)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestApplyEnv_BadWindow(t *testing.T) {
	t.Setenv("CASHCHECK_TRANSFER_WINDOW_DAYS", "three")
	assert.Error(t, Default().ApplyEnv())
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CASHCHECK_SESSION_ID=from-dotenv\n"), 0o644))
	t.Setenv("CASHCHECK_SESSION_ID", "")
	os.Unsetenv("CASHCHECK_SESSION_ID")

	assert.False(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
	assert.True(t, LoadDotEnv(path))
	assert.Equal(t, "from-dotenv", os.Getenv("CASHCHECK_SESSION_ID"))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Import.Timezone = "Mars/Olympus"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Transfers.WindowDays = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Session.ID = ""
	assert.Error(t, cfg.Validate())
}
