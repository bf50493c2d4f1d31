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

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: db
  user: vibe
  dbname: vibecheck
jwt:
  secret: s3cret
redis:
  cache_ttl: 30s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)
	assert.Equal(t, 30, cfg.JWT.TTLDays)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "host=db port=5432 user=vibe password= dbname=vibecheck sslmode=disable", cfg.Database.DSN())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
database:
  host: db
jwt:
  secret: from-file
`)
	t.Setenv("VIBECHECK_HTTP_PORT", "9100")
	t.Setenv("VIBECHECK_JWT_SECRET", "from-env")
	t.Setenv("VIBECHECK_DATABASE_URL", "postgres://u:p@localhost/vibes")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "postgres://u:p@localhost/vibes", cfg.Database.DSN())
}

func TestLoadMissingFileUsesEnv(t *testing.T) {
	t.Setenv("VIBECHECK_JWT_SECRET", "env-only")
	t.Setenv("VIBECHECK_DATABASE_URL", "postgres://localhost/vibes")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "env-only", cfg.JWT.Secret)
}

func TestLoadRequiresSecret(t *testing.T) {
	path := writeConfig(t, "database:\n  host: db\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [unterminated")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadMemoryDriverNeedsNoDatabase(t *testing.T) {
	path := writeConfig(t, "database:\n  driver: memory\njwt:\n  secret: s\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	path := writeConfig(t, "database:\n  driver: mysql\njwt:\n  secret: s\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql")
}
