// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Data      DataConfig
	Server    ServerConfig
	Auth      AuthConfig
	Summary   SummaryConfig
	Dashboard DashboardConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig locates the on-disk state of the server.
type DataConfig struct {
	BasePath  string // Root data directory (default: ~/Minutes/data)
	DBPath    string // SQLite database (default: {base}/minutes.db)
	IndexPath string // Bleve index directory (default: {base}/index)
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port           string        // Server port (default: 8080)
	ReadTimeout    time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout   time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout    time.Duration // HTTP idle timeout (default: 60s)
	AllowedOrigins []string      // CORS origins (default: none)
	CookieSecure   bool          // Mark the session cookie Secure (default: true in production)
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// TokenKeyHex overrides the generated {base}/auth.key when set.
	TokenKeyHex      string
	SessionDuration  time.Duration // Browser-session login lifetime (default: 12h)
	RememberDuration time.Duration // "Remember me" login lifetime (default: 720h)
	// LoginRateLimit is the sustained login attempts per second per client.
	LoginRateLimit float64
	LoginBurst     int
}

// SummaryConfig bounds the generated summary.
type SummaryConfig struct {
	MaxSentences int
	MaxChars     int
}

// DashboardConfig holds dashboard listing configuration.
type DashboardConfig struct {
	PageSize int
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("minutes", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base path for data storage")
	dbPath := fs.String("db-path", "", "Path to the SQLite database")
	indexPath := fs.String("index-path", "", "Path to the search index")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	allowedOrigins := fs.String("allowed-origins", "", "Comma separated CORS origins")
	cookieSecure := fs.String("cookie-secure", "", "Mark the session cookie Secure")

	sessionDuration := fs.String("session-duration", "", "Session lifetime (e.g., 12h)")
	rememberDuration := fs.String("remember-duration", "", "Remembered session lifetime (e.g., 720h)")

	summarySentences := fs.String("summary-sentences", "", "Maximum sentences in a generated summary")
	summaryChars := fs.String("summary-chars", "", "Maximum characters in a generated summary")
	pageSize := fs.String("page-size", "", "Dashboard page size")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file %q: %w", *envFile, err)
	}

	environment := getConfigValue(*env, "ENV", "development")

	cfg := &Config{
		App: AppConfig{
			Environment: environment,
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath:  getConfigValue(*dataPath, "DATA_PATH", ""),
			DBPath:    getConfigValue(*dbPath, "DB_PATH", ""),
			IndexPath: getConfigValue(*indexPath, "INDEX_PATH", ""),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			AllowedOrigins: splitList(getConfigValue(*allowedOrigins, "ALLOWED_ORIGINS", "")),
			CookieSecure:   getBoolConfigValue(*cookieSecure, "COOKIE_SECURE", environment == "production"),
		},
		Auth: AuthConfig{
			TokenKeyHex:    getConfigValue("", "AUTH_TOKEN_KEY", ""),
			LoginRateLimit: getFloatConfigValue("", "LOGIN_RATE_LIMIT", 0.2),
			LoginBurst:     getIntConfigValue("", "LOGIN_BURST", 5),
		},
		Summary: SummaryConfig{
			MaxSentences: getIntConfigValue(*summarySentences, "SUMMARY_MAX_SENTENCES", 3),
			MaxChars:     getIntConfigValue(*summaryChars, "SUMMARY_MAX_CHARS", 300),
		},
		Dashboard: DashboardConfig{
			PageSize: getIntConfigValue(*pageSize, "DASHBOARD_PAGE_SIZE", 5),
		},
	}

	durations := []struct {
		name   string
		flag   string
		envKey string
		def    string
		dst    *time.Duration
	}{
		{"session duration", *sessionDuration, "SESSION_DURATION", "12h", &cfg.Auth.SessionDuration},
		{"remember duration", *rememberDuration, "REMEMBER_DURATION", "720h", &cfg.Auth.RememberDuration},
		{"read timeout", *readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{"write timeout", *writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout},
		{"idle timeout", *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flag, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.name, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandDataPaths(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if c.Auth.SessionDuration <= 0 || c.Auth.RememberDuration <= 0 {
		return errors.New("session durations must be positive")
	}

	if c.Summary.MaxSentences <= 0 {
		return fmt.Errorf("summary max sentences must be positive, got %d", c.Summary.MaxSentences)
	}
	if c.Summary.MaxChars <= 0 {
		return fmt.Errorf("summary max chars must be positive, got %d", c.Summary.MaxChars)
	}
	if c.Dashboard.PageSize <= 0 {
		return fmt.Errorf("dashboard page size must be positive, got %d", c.Dashboard.PageSize)
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPaths resolves the base path and derives the database and index
// paths from it when they are not set explicitly.
func (c *Config) expandDataPaths() error {
	defaultBase := ""
	if c.Data.BasePath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		defaultBase = filepath.Join(homeDir, "Minutes", "data")
	}

	base, err := expandPath(c.Data.BasePath, defaultBase)
	if err != nil {
		return err
	}
	c.Data.BasePath = base

	if c.Data.DBPath, err = expandPath(c.Data.DBPath, filepath.Join(base, "minutes.db")); err != nil {
		return err
	}
	if c.Data.IndexPath, err = expandPath(c.Data.IndexPath, filepath.Join(base, "index")); err != nil {
		return err
	}
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result float64
	if _, err := fmt.Sscanf(strValue, "%g", &result); err != nil {
		return defaultValue
	}
	return result
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
