package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Backend names.
const (
	BackendNotion  = "notion"
	BackendMongoDB = "mongodb"
	BackendSQLite  = "sqlite"
)

type Config struct {
	Backend string

	NotionAPIKey  string
	NotionVersion string
	NotionBaseURL string
	HTTPTimeout   time.Duration

	MongoURI      string
	MongoDatabase string

	SQLitePath string

	BatchSize int
	Pace      time.Duration

	LogLevel  string
	LogFormat string
}

// LoadDotEnv loads variables from path into the process environment
// without overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error reading %s: %w", path, err)
	}
	return nil
}

// Load builds a Config from v, applying defaults and validating that the
// selected backend has what it needs.
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	cfg := &Config{
		Backend:       v.GetString("MIGRATOR_BACKEND"),
		NotionAPIKey:  v.GetString("NOTION_API_KEY"),
		NotionVersion: v.GetString("NOTION_VERSION"),
		NotionBaseURL: v.GetString("NOTION_BASE_URL"),
		HTTPTimeout:   v.GetDuration("HTTP_TIMEOUT"),
		MongoURI:      v.GetString("MONGO_URI"),
		MongoDatabase: v.GetString("MONGO_DATABASE"),
		SQLitePath:    v.GetString("SQLITE_PATH"),
		BatchSize:     v.GetInt("MIGRATOR_BATCH_SIZE"),
		Pace:          v.GetDuration("MIGRATOR_PACE"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		LogFormat:     v.GetString("LOG_FORMAT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("MIGRATOR_BACKEND", BackendNotion)
	v.SetDefault("NOTION_VERSION", "2022-06-28")
	v.SetDefault("NOTION_BASE_URL", "https://api.notion.com")
	v.SetDefault("HTTP_TIMEOUT", 30*time.Second)
	v.SetDefault("MIGRATOR_BATCH_SIZE", 10)
	v.SetDefault("MIGRATOR_PACE", 100*time.Millisecond)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// Validate checks the settings required by the selected backend.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("MIGRATOR_BATCH_SIZE must be positive, got %d", c.BatchSize)
	}
	if c.Pace < 0 {
		return fmt.Errorf("MIGRATOR_PACE must not be negative, got %s", c.Pace)
	}

	switch c.Backend {
	case BackendNotion:
		if c.NotionAPIKey == "" {
			return fmt.Errorf("required environment variable NOTION_API_KEY is missing")
		}
	case BackendMongoDB:
		if c.MongoURI == "" {
			return fmt.Errorf("required environment variable MONGO_URI is missing")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("required environment variable SQLITE_PATH is missing")
		}
	default:
		return fmt.Errorf("unsupported backend: %q", c.Backend)
	}
	return nil
}
