// Package config provides application configuration with support for
// command-line overrides, environment variables, and .env files.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Data    DataConfig
	Library LibraryConfig
	Scan    ScanConfig
	Watch   WatchConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds persistence configuration.
type DataConfig struct {
	// Path is the database directory (default: ~/Aria/data).
	Path string
}

// LibraryConfig holds library configuration.
type LibraryConfig struct {
	// Paths are the roots scanned for media, os.PathListSeparator-joined in
	// the environment.
	Paths []string
}

// ScanConfig holds discovery and consolidation configuration.
type ScanConfig struct {
	// Workers bounds concurrent fan-out per directory level (default: 0,
	// one per CPU).
	Workers int
	// ConflictKeys are the tags that block an album merge when colliding
	// tracks disagree on one.
	ConflictKeys []string
	// TraceRate is the tracer's log budget in lines per second.
	TraceRate float64
}

// WatchConfig holds filesystem watching configuration.
type WatchConfig struct {
	Enabled     bool
	SettleDelay time.Duration
}

// Overrides carries command-line values into Load. Empty fields defer to the
// environment and defaults.
type Overrides struct {
	Environment  string
	LogLevel     string
	DataPath     string
	LibraryPaths []string
	Workers      string
	ConflictKeys string
	EnvFile      string
}

// defaultConflictKeys matches the consolidation default; configured here so
// the whole set is overridable from one place.
const defaultConflictKeys = "ENCODER,ORGANIZATION,DATE,YEAR"

// Load builds configuration with precedence: command-line overrides, then
// environment variables, then the .env file, then defaults.
func Load(ov Overrides) (*Config, error) {
	envFile := ov.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// Load .env if it exists (silently ignore if not found).
	_ = loadEnvFile(envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(ov.Environment, "ARIA_ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(ov.LogLevel, "ARIA_LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			Path: getConfigValue(ov.DataPath, "ARIA_DATA_PATH", ""),
		},
		Scan: ScanConfig{
			Workers:      getIntConfigValue(ov.Workers, "ARIA_SCAN_WORKERS", 0),
			ConflictKeys: splitList(getConfigValue(ov.ConflictKeys, "ARIA_CONFLICT_KEYS", defaultConflictKeys), ","),
			TraceRate:    float64(getIntConfigValue("", "ARIA_TRACE_RATE", 10)),
		},
		Watch: WatchConfig{
			Enabled: getBoolConfigValue("", "ARIA_WATCH", true),
		},
	}

	if len(ov.LibraryPaths) > 0 {
		cfg.Library.Paths = ov.LibraryPaths
	} else {
		cfg.Library.Paths = splitList(os.Getenv("ARIA_LIBRARY_PATHS"), string(os.PathListSeparator))
	}

	settleStr := getConfigValue("", "ARIA_WATCH_SETTLE_DELAY", "2s")
	settle, err := time.ParseDuration(settleStr)
	if err != nil {
		return nil, fmt.Errorf("invalid settle delay %q: %w", settleStr, err)
	}
	cfg.Watch.SettleDelay = settle

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}
	if err := cfg.expandLibraryPaths(); err != nil {
		return nil, fmt.Errorf("invalid library path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
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

	if c.Data.Path == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if len(c.Scan.ConflictKeys) == 0 {
		return errors.New("conflict key set cannot be empty")
	}

	// Library paths can be empty - roots can be passed per scan.

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
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

func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Aria", "data")

	expanded, err := expandPath(c.Data.Path, defaultPath)
	if err != nil {
		return err
	}
	c.Data.Path = expanded
	return nil
}

func (c *Config) expandLibraryPaths() error {
	for i, p := range c.Library.Paths {
		expanded, err := expandPath(p, "")
		if err != nil {
			return err
		}
		c.Library.Paths[i] = expanded
	}
	return nil
}

// getConfigValue returns the first non-empty value from override, env var,
// or default.
func getConfigValue(override, envKey, defaultValue string) string {
	if override != "" {
		return override
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from override, env var, or default.
// Accepts "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(override, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(override, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from override, env var, or default.
func getIntConfigValue(override, envKey string, defaultValue int) int {
	strValue := getConfigValue(override, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

func splitList(value, sep string) []string {
	var out []string
	for _, part := range strings.Split(value, sep) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		// Env vars take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
