// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// BlobSourceConfig holds the optional Azure Blob export source settings.
type BlobSourceConfig struct {
	AccountName string
	AccountKey  string
	Container   string
	Prefix      string
}

// Configured returns true when all required blob fields are set.
func (b *BlobSourceConfig) Configured() bool {
	return b.AccountName != "" && b.AccountKey != "" && b.Container != ""
}

// Config holds the configuration for the HTTP API and the Fabric upstream.
type Config struct {
	SessionDBPath string // path to SQLite session store (default "fabric_bridge.sqlite")
	ListenAddr    string // HTTP listen address (default ":8080")
	LogLevel      string // log level: debug, info, warn, error (default "info")
	Env           string // environment: "development" (default) or "production"

	// Fabric upstream
	FabricAPIBaseURL string // Fabric metadata API base URL
	FabricToken      string // bearer token; acquisition/refresh is upstream's job

	// Local request auth. When JWTSecret is set, API callers must present an
	// HS256 token signed with it; otherwise requests run as "anonymous".
	JWTSecret string

	// Auto-apply policy
	AutoApplyCrossPipeline   bool
	AutoApplyCaseInsensitive bool

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// Blob holds the optional Azure Blob export source.
	Blob BlobSourceConfig

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		SessionDBPath:            os.Getenv("SESSION_DB_PATH"),
		ListenAddr:               os.Getenv("LISTEN_ADDR"),
		LogLevel:                 os.Getenv("LOG_LEVEL"),
		Env:                      os.Getenv("ENV"),
		FabricAPIBaseURL:         os.Getenv("FABRIC_API_BASE_URL"),
		FabricToken:              os.Getenv("FABRIC_TOKEN"),
		JWTSecret:                os.Getenv("JWT_SECRET"),
		AutoApplyCrossPipeline:   parseBoolEnvDefault("AUTO_APPLY_CROSS_PIPELINE", true),
		AutoApplyCaseInsensitive: parseBoolEnvDefault("AUTO_APPLY_CASE_INSENSITIVE", false),
	}

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}

	// Blob export source (optional)
	cfg.Blob = BlobSourceConfig{
		AccountName: os.Getenv("EXPORT_BLOB_ACCOUNT"),
		AccountKey:  os.Getenv("EXPORT_BLOB_KEY"),
		Container:   os.Getenv("EXPORT_BLOB_CONTAINER"),
		Prefix:      os.Getenv("EXPORT_BLOB_PREFIX"),
	}

	// Defaults
	if cfg.SessionDBPath == "" {
		cfg.SessionDBPath = "fabric_bridge.sqlite"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	if cfg.FabricAPIBaseURL == "" {
		cfg.Warnings = append(cfg.Warnings, "FABRIC_API_BASE_URL not set — supported-types verification will be unavailable and nothing will be skipped")
	}
	if cfg.FabricToken == "" && cfg.FabricAPIBaseURL != "" {
		cfg.Warnings = append(cfg.Warnings, "FABRIC_TOKEN not set — Fabric API calls will fail until a token is provided")
	}
	if cfg.JWTSecret == "" {
		cfg.Warnings = append(cfg.Warnings, "JWT_SECRET not set — API requests run unauthenticated as 'anonymous'")
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET must be set in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	return defaultVal
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
