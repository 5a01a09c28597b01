package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE_PATH", "")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_NAME", "experiments_test")
	t.Setenv("JWT_TTL", "not-a-duration")
	t.Setenv("LOG_MAX_SIZE", "12")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "experiments_test", cfg.DBName)
	assert.Equal(t, 72*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 12, cfg.Log.MaxSize)
	assert.Contains(t, cfg.DSN(), "dbname=experiments_test")
}

func TestLoadConfigFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
db_driver: sqlite
db_name: "file:overlay?mode=memory"
jwt_ttl: 2h
log:
  level: debug
  to_file: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CONFIG_FILE_PATH", path)
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "file:overlay?mode=memory", cfg.DSN())
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.ToFile)
}

func TestLoadConfigBadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_driver: [unterminated"), 0o600))
	t.Setenv("CONFIG_FILE_PATH", path)

	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("CONFIG_FILE_PATH", filepath.Join(dir, "missing.yaml"))
	_, err = LoadConfig()
	assert.Error(t, err)
}
