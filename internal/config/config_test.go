package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, int64(10<<20), cfg.Upload.MaxSizeBytes)
	assert.Equal(t, []string{"pdf", "txt"}, cfg.Upload.AllowedTypes)
	assert.Equal(t, 3, cfg.Query.TopK)
	assert.Equal(t, "memory", cfg.Auth.Store)
	assert.Equal(t, 60*time.Second, cfg.APITimeout())
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr())
	assert.Equal(t, 10, cfg.Redis.PoolSize)
	assert.Equal(t, 2*time.Second, cfg.Redis.Timeout())
}

func TestRedisTimeoutFallsBackWhenUnset(t *testing.T) {
	assert.Equal(t, 2*time.Second, RedisConfig{}.Timeout())
	assert.Equal(t, 250*time.Millisecond, RedisConfig{TimeoutMillis: 250}.Timeout())
}

func TestLoadFileTOMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[api]
base_url = "http://rag.internal:9000"
user_id = "7"

[query]
top_k = 5

[redis]
enabled = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("RAG_API_BASE_URL", "http://override:1234")
	t.Setenv("UPLOAD_ALLOWED_TYPES", "pdf,txt,md")
	t.Setenv("APP_PORT", "9090")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://override:1234", cfg.API.BaseURL)
	assert.Equal(t, "7", cfg.API.UserID)
	assert.Equal(t, 5, cfg.Query.TopK)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"pdf", "txt", "md"}, cfg.Upload.AllowedTypes)
	assert.Equal(t, 9090, cfg.App.Port)
}

func TestLoadFileRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api\nbase_url="), 0o600))

	_, err := LoadFile(path)
	require.Error(t, err)
}

func TestMySQLDSN(t *testing.T) {
	cfg := defaultConfig()
	cfg.MySQL.Password = "secret"
	assert.Equal(t, "root:secret@tcp(127.0.0.1:3306)/ragdash?parseTime=true&loc=Local&charset=utf8mb4", cfg.MySQLDSN())
}
