package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory.
const FileName = "cashcheck.yaml"

// Config represents the top-level cashcheck.yaml configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Session   SessionConfig   `yaml:"session"`
	Import    ImportConfig    `yaml:"import"`
	Transfers TransfersConfig `yaml:"transfers"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// DatabaseConfig points at PostgreSQL. An empty URL selects the in-memory store.
type DatabaseConfig struct {
	URL string `yaml:"url,omitempty"`
}

// SessionConfig selects the session the CLI operates on.
type SessionConfig struct {
	ID string `yaml:"id"`
}

// ImportConfig controls how CSV files are read.
type ImportConfig struct {
	Timezone  string `yaml:"timezone"` // IANA name, e.g. "America/Los_Angeles"
	Dir       string `yaml:"dir"`
	RulesFile string `yaml:"rules_file,omitempty"`
}

// TransfersConfig tunes transfer pairing.
type TransfersConfig struct {
	WindowDays int `yaml:"window_days"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	BodyLimitMB  int           `yaml:"body_limit_mb"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads a cashcheck.yaml file from disk. Fields missing from the file
// keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default().
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			ID: "default",
		},
		Import: ImportConfig{
			Timezone: "America/Los_Angeles",
			Dir:      "import",
		},
		Transfers: TransfersConfig{
			WindowDays: 3,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			BodyLimitMB:  10,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadDotEnv loads the first .env file found among paths into the process
// environment. Variables already set are not overwritten. A missing file is
// not an error.
func LoadDotEnv(paths ...string) bool {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			return true
		}
	}
	return false
}

// ApplyEnv overrides fields from CASHCHECK_* and LOG_LEVEL variables.
func (c *Config) ApplyEnv() error {
	c.Database.URL = getEnv("CASHCHECK_DATABASE_URL", c.Database.URL)
	c.Session.ID = getEnv("CASHCHECK_SESSION_ID", c.Session.ID)
	c.Import.Timezone = getEnv("CASHCHECK_TIMEZONE", c.Import.Timezone)
	c.Import.Dir = getEnv("CASHCHECK_IMPORT_DIR", c.Import.Dir)
	c.Server.Addr = getEnv("CASHCHECK_ADDR", c.Server.Addr)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)

	if v := os.Getenv("CASHCHECK_TRANSFER_WINDOW_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing CASHCHECK_TRANSFER_WINDOW_DAYS: %w", err)
		}
		c.Transfers.WindowDays = days
	}
	return nil
}

// Location loads the import timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Import.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Import.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Import.Timezone, err)
	}
	return loc, nil
}

// Validate checks values that would otherwise fail deep inside a command.
func (c *Config) Validate() error {
	if c.Session.ID == "" {
		return errors.New("session id is required")
	}
	if c.Transfers.WindowDays < 0 {
		return fmt.Errorf("transfers.window_days must not be negative, got %d", c.Transfers.WindowDays)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
