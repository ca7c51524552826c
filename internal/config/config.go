package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"saldo/internal/projection"
)

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"

	RollForwardReplay = "replay"
	RollForwardMarker = "marker"
)

type Config struct {
	// HTTP Server
	Port string

	// Storage
	DataBackend  string
	SQLiteDBPath string
	DatabaseURL  string
	SeedFile     string

	// AMQP, disabled when URL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Cache, in-process when RedisURL is empty
	RedisURL string
	CacheTTL time.Duration

	// Ledger behaviour
	RollForwardMode    string
	RollForwardOnStart bool
	Timezone           string
	Forecast           map[string]string

	// Export
	ExportDir                string
	ExportInterval           time.Duration
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	LogLevel string

	// ConfigFile is the TOML file that was read, empty if none.
	ConfigFile string
}

// File is the optional TOML layer. Environment variables win over it.
type File struct {
	Server struct {
		Port string `toml:"port"`
	} `toml:"server"`
	Storage struct {
		Backend     string `toml:"backend"`
		SQLitePath  string `toml:"sqlite_path"`
		DatabaseURL string `toml:"database_url"`
	} `toml:"storage"`
	Ledger struct {
		RollForwardMode string `toml:"rollforward_mode"`
		Timezone        string `toml:"timezone"`
	} `toml:"ledger"`
	Export struct {
		Dir string `toml:"dir"`
	} `toml:"export"`
	// Forecast maps lower-case weekday names to amounts, e.g. tuesday = "50".
	Forecast map[string]string `toml:"forecast"`
}

// ConfigDir returns the XDG config directory for saldo.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "saldo")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "saldo")
}

// ConfigPath returns SALDO_CONFIG or the default config.toml location.
func ConfigPath() (path string, explicit bool) {
	if p := strings.TrimSpace(os.Getenv("SALDO_CONFIG")); p != "" {
		return p, true
	}
	return filepath.Join(ConfigDir(), "config.toml"), false
}

// ReadFile decodes a TOML config file.
func ReadFile(path string) (File, error) {
	var f File
	data, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	if _, err := toml.Decode(string(data), &f); err != nil {
		return f, fmt.Errorf("parse config %s: %w", path, err)
	}
	return f, nil
}

// Load builds the configuration from defaults, the TOML file and the
// environment, in increasing order of precedence. A missing default file is
// fine; a missing SALDO_CONFIG file is an error.
func Load() (*Config, error) {
	var file File
	path, explicit := ConfigPath()
	f, err := ReadFile(path)
	switch {
	case err == nil:
		file = f
	case errors.Is(err, os.ErrNotExist) && !explicit:
		path = ""
	default:
		return nil, err
	}

	cfg := &Config{
		Port: getEnv("PORT", or(file.Server.Port, "8081")),

		DataBackend:  getEnv("DATA_BACKEND", or(file.Storage.Backend, BackendSQLite)),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", or(file.Storage.SQLitePath, "./data/saldo.db")),
		DatabaseURL:  getEnv("DATABASE_URL", file.Storage.DatabaseURL),
		SeedFile:     getEnv("SEED_FILE", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "saldo"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_changes"),

		RedisURL: getEnv("REDIS_URL", ""),
		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		RollForwardMode:    strings.ToLower(getEnv("ROLLFORWARD_MODE", or(file.Ledger.RollForwardMode, RollForwardReplay))),
		RollForwardOnStart: getEnvBool("ROLLFORWARD_ON_START", false),
		Timezone:           getEnv("TIMEZONE", or(file.Ledger.Timezone, "Local")),
		Forecast:           file.Forecast,

		ExportDir:                getEnv("EXPORT_DIR", file.Export.Dir),
		ExportInterval:           getEnvDuration("EXPORT_INTERVAL", 0),
		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		LogLevel:   getEnv("LOG_LEVEL", "info"),
		ConfigFile: path,
	}
	return cfg, nil
}

// Location resolves Timezone; "Local" and empty mean the process zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Increments returns the forecast table with file overrides applied.
func (c *Config) Increments() (projection.Increments, error) {
	return projection.IncrementsFromMap(c.Forecast)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required when using postgres backend")
		} else if u, err := url.Parse(c.DatabaseURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid DATABASE_URL: %v", err))
		} else if u.Scheme != "postgres" && u.Scheme != "postgresql" {
			errs = append(errs, fmt.Sprintf("invalid DATABASE_URL scheme '%s': must be 'postgres' or 'postgresql'", u.Scheme))
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of [memory sqlite postgres]", c.DataBackend))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RedisURL != "" {
		if u, err := url.Parse(c.RedisURL); err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") {
			errs = append(errs, fmt.Sprintf("invalid REDIS_URL '%s': must be a redis:// or rediss:// URL", c.RedisURL))
		}
	}
	if c.CacheTTL < time.Second {
		errs = append(errs, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}

	if c.RollForwardMode != RollForwardReplay && c.RollForwardMode != RollForwardMarker {
		errs = append(errs, fmt.Sprintf("invalid roll-forward mode '%s': must be 'replay' or 'marker'", c.RollForwardMode))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}
	if _, err := c.Increments(); err != nil {
		errs = append(errs, err.Error())
	}

	if c.ExportInterval < 0 {
		errs = append(errs, fmt.Sprintf("invalid export interval %v: must not be negative", c.ExportInterval))
	}
	if c.GoogleSpreadsheetID != "" && c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
		errs = append(errs, "GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE is required when GOOGLE_SPREADSHEET_ID is set")
	}
	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func or(v, def string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
