package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable LoadFromEnv reads so tests start clean.
// t.Setenv registers restoration automatically.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SESSION_DB_PATH", "LISTEN_ADDR", "LOG_LEVEL", "ENV",
		"FABRIC_API_BASE_URL", "FABRIC_TOKEN", "JWT_SECRET",
		"AUTO_APPLY_CROSS_PIPELINE", "AUTO_APPLY_CASE_INSENSITIVE",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "CORS_ALLOWED_ORIGINS",
		"EXPORT_BLOB_ACCOUNT", "EXPORT_BLOB_KEY", "EXPORT_BLOB_CONTAINER", "EXPORT_BLOB_PREFIX",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "fabric_bridge.sqlite", cfg.SessionDBPath)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.IsProduction())
	assert.True(t, cfg.AutoApplyCrossPipeline)
	assert.False(t, cfg.AutoApplyCaseInsensitive)
	assert.Equal(t, float64(100), cfg.RateLimitRPS)
	assert.Equal(t, 200, cfg.RateLimitBurst)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.Blob.Configured())
}

func TestLoadFromEnvWarnings(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	// Missing Fabric URL and JWT secret both warn; the token warning only
	// fires when a URL is set.
	assert.Len(t, cfg.Warnings, 2)

	t.Setenv("FABRIC_API_BASE_URL", "https://api.fabric.microsoft.com/v1")
	cfg, err = LoadFromEnv()
	require.NoError(t, err)
	assert.Len(t, cfg.Warnings, 2)

	t.Setenv("FABRIC_TOKEN", "tok")
	t.Setenv("JWT_SECRET", "secret")
	cfg, err = LoadFromEnv()
	require.NoError(t, err)
	assert.Empty(t, cfg.Warnings)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_DB_PATH", "/tmp/sessions.db")
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RATE_LIMIT_RPS", "5.5")
	t.Setenv("RATE_LIMIT_BURST", "10")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("AUTO_APPLY_CROSS_PIPELINE", "false")
	t.Setenv("AUTO_APPLY_CASE_INSENSITIVE", "yes")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/sessions.db", cfg.SessionDBPath)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 5.5, cfg.RateLimitRPS)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.AutoApplyCrossPipeline)
	assert.True(t, cfg.AutoApplyCaseInsensitive)
}

func TestLoadFromEnvProductionRequiresJWTSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadFromEnvProductionRejectsCORSWildcard(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "secret")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CORS")
}

func TestBlobSourceConfigured(t *testing.T) {
	clearEnv(t)
	t.Setenv("EXPORT_BLOB_ACCOUNT", "acct")
	t.Setenv("EXPORT_BLOB_KEY", "key")
	t.Setenv("EXPORT_BLOB_CONTAINER", "exports")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.Blob.Configured())
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]string{
		"debug": "DEBUG", "info": "INFO", "warn": "WARN",
		"warning": "WARN", "error": "ERROR", "bogus": "INFO", "": "INFO",
	}
	for in, want := range tests {
		cfg := &Config{LogLevel: in}
		assert.Equal(t, want, cfg.SlogLevel().String(), "level %q", in)
	}
}

func TestParseBoolEnvDefault(t *testing.T) {
	t.Setenv("TEST_BOOL", "")
	assert.True(t, parseBoolEnvDefault("TEST_BOOL", true))
	assert.False(t, parseBoolEnvDefault("TEST_BOOL", false))

	for _, v := range []string{"1", "true", "YES", "On"} {
		t.Setenv("TEST_BOOL", v)
		assert.True(t, parseBoolEnvDefault("TEST_BOOL", false), v)
	}
	for _, v := range []string{"0", "false", "NO", "Off"} {
		t.Setenv("TEST_BOOL", v)
		assert.False(t, parseBoolEnvDefault("TEST_BOOL", true), v)
	}

	t.Setenv("TEST_BOOL", "maybe")
	assert.True(t, parseBoolEnvDefault("TEST_BOOL", true))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\n\nDOTENV_A=plain\nDOTENV_B=\"quoted value\"\nDOTENV_C='single'\nnot a pair\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("DOTENV_A", "")
	t.Setenv("DOTENV_B", "")
	t.Setenv("DOTENV_C", "already-set")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "plain", os.Getenv("DOTENV_A"))
	assert.Equal(t, "quoted value", os.Getenv("DOTENV_B"))
	// Existing environment wins over the file.
	assert.Equal(t, "already-set", os.Getenv("DOTENV_C"))
}

func TestLoadDotEnvMissingFileIsNotAnError(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}

func TestStripQuotes(t *testing.T) {
	assert.Equal(t, "v", stripQuotes(`"v"`))
	assert.Equal(t, "v", stripQuotes(`'v'`))
	assert.Equal(t, `"v'`, stripQuotes(`"v'`))
	assert.Equal(t, "v", stripQuotes("v"))
	assert.Equal(t, `"`, stripQuotes(`"`))
}
