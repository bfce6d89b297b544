package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"ledger/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, 10*time.Second, cfg.Server.GetReadTimeout())
	assert.Equal(t, time.Duration(0), cfg.Storage.GetAutosaveInterval())
	assert.Equal(t, "json", cfg.Storage.StoreConfig().Backend)
	assert.Equal(t, logging.DefaultConfig(), cfg.Logging.LoggerConfig())
}

func TestLoadMergesFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.toml", `
[server]
port = 9000
rate_limit = 50.0

[storage]
backend = "sqlite"
path = "ledger.db"
autosave_interval = "1m"

[logging]
level = "debug"
`)
	override := writeFile(t, dir, "local.toml", `
[server]
port = 9100
`)

	cfg, err := Load(base, filepath.Join(dir, "missing.toml"), override)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 50.0, cfg.Server.RateLimit)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, time.Minute, cfg.Storage.GetAutosaveInterval())
	assert.Equal(t, "debug", cfg.Logging.Level)
	// 未指定的欄位保留預設值
	assert.Equal(t, "ledger", cfg.Metrics.Namespace)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LEDGER_PORT", "7070")
	t.Setenv("LEDGER_STORAGE_BACKEND", "postgres")
	t.Setenv("LEDGER_STORAGE_DSN", "postgres://u:p@localhost/ledger")
	t.Setenv("LEDGER_LOG_FORMAT", "console")
	t.Setenv("LEDGER_RATE_LIMIT", "12.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Storage.Backend)
	assert.Equal(t, "postgres://u:p@localhost/ledger", cfg.Storage.StoreConfig().DSN)
	assert.Equal(t, "console", cfg.Logging.LoggerConfig().Format)
	assert.Equal(t, 12.5, cfg.Server.RateLimit)
}

func TestValidateAggregatesProblems(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	cfg.Server.RateLimit = -1
	cfg.Storage.Backend = "mongo"
	cfg.Storage.Timeout = "soon"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 4)
}

func TestValidatePostgresNeedsDSN(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = "postgres"
	assert.ErrorContains(t, cfg.Validate(), "storage.dsn")
}

func TestLoadRejectsBadTOML(t *testing.T) {
	p := writeFile(t, t.TempDir(), "bad.toml", "[server\nport = ")
	_, err := Load(p)
	assert.ErrorContains(t, err, "failed to parse config file")
}
