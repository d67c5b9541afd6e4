package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":50051", cfg.Server.Address)
	assert.False(t, cfg.Server.Reflection)
	assert.Equal(t, EngineMutex, cfg.Ledger.Engine)
	assert.Equal(t, 1000, cfg.Ledger.QueueSize)
	assert.Zero(t, cfg.Ledger.MaxAccounts)
	assert.Equal(t, 3306, cfg.MySQL.Port)
	assert.Equal(t, 30*time.Minute, cfg.MySQL.ConnMaxLifetime)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.False(t, cfg.NeedsMySQL())
}

func TestShippedConfigIsMemoryOnly(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, EngineMutex, cfg.Ledger.Engine)
	assert.Empty(t, cfg.Ledger.WALPath)
	assert.False(t, cfg.NeedsMySQL())
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":6000"
ledger:
  engine: lmax
  max_accounts: 5
  wal_path: /tmp/ledger.wal
mysql:
  host: db
  conn_max_lifetime: 5m
logger:
  level: debug
`)
	t.Setenv("LEDGER_MAX_ACCOUNTS", "7")
	t.Setenv("MYSQL_HOST", "db.prod")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":6000", cfg.Server.Address)
	assert.Equal(t, EngineLMAX, cfg.Ledger.Engine)
	assert.Equal(t, 7, cfg.Ledger.MaxAccounts)
	assert.Equal(t, "/tmp/ledger.wal", cfg.Ledger.WALPath)
	assert.Equal(t, "db.prod", cfg.MySQL.Host)
	assert.Equal(t, 5*time.Minute, cfg.MySQL.ConnMaxLifetime)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := Load(writeConfig(t, "ledger:\n  engine: abacus\n"))
	assert.ErrorContains(t, err, "unknown ledger engine")

	_, err = Load(writeConfig(t, "ledger:\n  engine: mysql\n  wal_path: x.wal\n"))
	assert.ErrorContains(t, err, "wal_path")

	_, err = Load(writeConfig(t, "ledger: [\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
