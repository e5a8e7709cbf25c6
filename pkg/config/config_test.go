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
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadFullConfig(t *testing.T) {
	p := writeConfig(t, `
server:
  address: "127.0.0.1"
  port: 9090
  db_path: "/tmp/chatdb"
auth:
  session_secret: "shh"
  session_ttl: "720h"
  bcrypt_cost: 12
security:
  rate_limit:
    rps: 2.5
    burst: 4
sweeper:
  enabled: true
  cron: "0 * * * *"
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", cfg.Addr())
	assert.Equal(t, "/tmp/chatdb", cfg.Server.DBPath)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.SessionTTL.Std())
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, 2.5, cfg.Security.RateLimit.RPS)
	assert.True(t, cfg.Sweeper.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv("CHATDB_SESSION_SECRET", "env-secret")
	t.Setenv("CHATDB_DB_PATH", "/tmp/env-db")
	t.Setenv("CHATDB_ADDR", "0.0.0.0:7070")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.Auth.SessionSecret)
	assert.Equal(t, "0.0.0.0:7070", cfg.Addr())
	assert.NoError(t, cfg.Validate())
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("CHATDB_SESSION_SECRET", "from-env")
	p := writeConfig(t, "auth:\n  session_secret: \"from-file\"\n")
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.SessionSecret)
}

func TestResolveFlagsWin(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Address = "10.0.0.1"
	cfg.Server.Port = 9000
	cfg.Server.DBPath = "/data/db"

	Resolve(cfg, Flags{
		Addr: "127.0.0.1:8081",
		DB:   "/flag/db",
		Set:  map[string]bool{"addr": true, "db": true},
	})
	assert.Equal(t, "127.0.0.1:8081", cfg.Addr())
	assert.Equal(t, "/flag/db", cfg.Server.DBPath)

	// unset flags leave loaded values alone, but fill empty ones
	cfg2 := &Config{}
	Resolve(cfg2, Flags{Addr: ":8080", DB: "./.database", Set: map[string]bool{}})
	assert.Equal(t, "./.database", cfg2.Server.DBPath)
	assert.Equal(t, ":8080", cfg2.Addr())
}

func TestValidateRequiresSecretAndDBPath(t *testing.T) {
	cfg := &Config{}
	require.Error(t, cfg.Validate())
	cfg.Auth.SessionSecret = "s"
	require.Error(t, cfg.Validate())
	cfg.Server.DBPath = "/tmp/db"
	assert.NoError(t, cfg.Validate())
}

func TestInvalidDurationRejected(t *testing.T) {
	p := writeConfig(t, "auth:\n  session_ttl: \"soon\"\n")
	_, err := Load(p)
	require.Error(t, err)
}
