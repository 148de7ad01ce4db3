// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// DefaultStateKey is the document key holding the application state.
const DefaultStateKey = "warsztatcrm_state_v1"

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Settings SettingsConfig `yaml:"settings"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `yaml:"cors_origins"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

// StorageConfig selects the document store.
type StorageConfig struct {
	Driver string `yaml:"driver"` // "memory", "file" or "sqlite"

	// Path is a directory for the file driver and a database file for sqlite.
	Path string `yaml:"path"`

	// SQLiteDriver is "sqlite3" (cgo) or "sqlite" (pure Go).
	SQLiteDriver string `yaml:"sqlite_driver"`

	Key string `yaml:"key"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// SettingsConfig configures user preferences.
type SettingsConfig struct {
	Theme        string `yaml:"theme"` // "light" or "dark"
	ThemePersist bool   `yaml:"theme_persist"`
}

// Default returns the configuration used when neither a file nor the
// environment sets anything.
func Default() Config {
	cfg := base()
	setDefaults(&cfg)
	return cfg
}

// base holds the boolean defaults; yaml leaves absent keys untouched.
func base() Config {
	return Config{
		Metrics:  MetricsConfig{Enabled: true},
		Settings: SettingsConfig{ThemePersist: true},
	}
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, expanding environment variables and
// applying WARSZTAT_* overrides.
func Parse(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	cfg := base()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// LoadFromEnv creates configuration from defaults and environment variables.
//
// Environment variables:
//
//	WARSZTAT_SERVER_HOST         - Server host (default: 127.0.0.1)
//	WARSZTAT_SERVER_PORT         - Server port (default: 8080)
//	WARSZTAT_CORS_ORIGINS        - Comma-separated allowed origins
//	WARSZTAT_STORAGE_DRIVER      - memory, file or sqlite (default: file)
//	WARSZTAT_STORAGE_PATH        - Data directory or database file
//	WARSZTAT_SQLITE_DRIVER       - sqlite3 or sqlite (default: sqlite)
//	WARSZTAT_STORAGE_KEY         - State document key
//	WARSZTAT_LOG_LEVEL           - debug, info, warn, error (default: info)
//	WARSZTAT_LOG_FORMAT          - json or console (default: json)
//	WARSZTAT_METRICS_ENABLED     - Enable /metrics (default: true)
//	WARSZTAT_METRICS_PATH        - Metrics path (default: /metrics)
//	WARSZTAT_THEME               - light or dark (default: light)
//	WARSZTAT_THEME_PERSIST       - Remember the theme (default: true)
func LoadFromEnv() (*Config, error) {
	cfg := base()

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// LoadWithFallback loads path when it exists and falls back to the
// environment otherwise.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies WARSZTAT_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WARSZTAT_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("WARSZTAT_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("WARSZTAT_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("WARSZTAT_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if v := os.Getenv("WARSZTAT_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}

	if v := os.Getenv("WARSZTAT_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("WARSZTAT_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("WARSZTAT_SQLITE_DRIVER"); v != "" {
		cfg.Storage.SQLiteDriver = v
	}
	if v := os.Getenv("WARSZTAT_STORAGE_KEY"); v != "" {
		cfg.Storage.Key = v
	}

	if v := os.Getenv("WARSZTAT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("WARSZTAT_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("WARSZTAT_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("WARSZTAT_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}

	if v := os.Getenv("WARSZTAT_THEME"); v != "" {
		cfg.Settings.Theme = v
	}
	if v := os.Getenv("WARSZTAT_THEME_PERSIST"); v != "" {
		cfg.Settings.ThemePersist = parseBool(v)
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = StorageFile
	}
	if cfg.Storage.Path == "" {
		switch cfg.Storage.Driver {
		case StorageSQLite:
			cfg.Storage.Path = "warsztat.db"
		case StorageFile:
			cfg.Storage.Path = "data"
		}
	}
	if cfg.Storage.SQLiteDriver == "" {
		cfg.Storage.SQLiteDriver = "sqlite"
	}
	if cfg.Storage.Key == "" {
		cfg.Storage.Key = DefaultStateKey
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Settings.Theme == "" {
		cfg.Settings.Theme = "light"
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	validDrivers := map[string]bool{StorageMemory: true, StorageFile: true, StorageSQLite: true}
	if !validDrivers[cfg.Storage.Driver] {
		return fmt.Errorf("storage.driver must be one of: memory, file, sqlite, got %q", cfg.Storage.Driver)
	}
	if cfg.Storage.Driver == StorageSQLite {
		if cfg.Storage.SQLiteDriver != "sqlite3" && cfg.Storage.SQLiteDriver != "sqlite" {
			return fmt.Errorf("storage.sqlite_driver must be 'sqlite3' or 'sqlite', got %q", cfg.Storage.SQLiteDriver)
		}
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", cfg.Metrics.Path)
	}

	if cfg.Settings.Theme != "light" && cfg.Settings.Theme != "dark" {
		return fmt.Errorf("settings.theme must be 'light' or 'dark', got %q", cfg.Settings.Theme)
	}

	return nil
}
