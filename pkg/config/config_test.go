package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_TypesenseConfig(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("TYPESENSE_URL", "http://test-typesense:8108")
	t.Setenv("TYPESENSE_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://test-typesense:8108", cfg.Typesense.URL)
	assert.Equal(t, "test-key", cfg.Typesense.APIKey)
	assert.True(t, cfg.Typesense.Enabled())
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("TYPESENSE_URL", "")
	t.Setenv("RATE_LIMIT_WINDOW", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Typesense.Enabled())
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "authenticated", cfg.Auth.Audience)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("RATE_LIMIT_REVIEW_WRITES=3\nRATE_LIMIT_WINDOW=30s\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	t.Cleanup(func() {
		os.Unsetenv("RATE_LIMIT_REVIEW_WRITES")
		os.Unsetenv("RATE_LIMIT_WINDOW")
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.RateLimit.ReviewWrites)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ReportsMalformedValues(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("SERVER_PORT", "eighty")
	t.Setenv("RATE_LIMIT_WINDOW", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVER_PORT")
	assert.Contains(t, err.Error(), "RATE_LIMIT_WINDOW")
}

func TestLoad_DatabasePool(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("DB_MAX_OPEN_CONNS", "8")
	t.Setenv("DB_CONN_MAX_LIFETIME", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Database.MaxIdleConns)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
}
