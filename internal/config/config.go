package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Discord configuration
	Token string

	// Resource paths
	DataDir     string
	CatalogPath string
	SongsDir    string

	// Environment
	Environment string // "development" or "production"
	LogLevel    string

	// Session admission
	MaxGuilds        int
	MaxPendingGuilds int
	DefaultVersions  []string
	ForcePassword    string // removes the bot's other sessions
	KickPassword     string // makes the bot leave its other guilds

	// Event handling
	EventWorkers int
	ReactionRate float64

	// Victory history storage
	StorageType              string // "memory", "sqlite" or "elasticsearch"
	SQLitePath               string
	ElasticsearchURL         string
	ElasticsearchUsername    string
	ElasticsearchPassword    string
	ElasticsearchIndexPrefix string
	HistoryRetention         time.Duration

	// Companion website
	WebsiteURL        string
	WebsiteToken      string
	HeartbeatInterval time.Duration
}

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Only return error if file exists but couldn't be loaded
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	return FromEnv()
}

// FromEnv builds the configuration from the current environment only
func FromEnv() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	dataDir := getEnvWithDefault("DATA_DIR", filepath.Join(wd, "data"))
	cfg := &Config{
		Token:                    os.Getenv("DISCORD_TOKEN"),
		Environment:              getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:                 getEnvWithDefault("LOG_LEVEL", "info"),
		DataDir:                  dataDir,
		CatalogPath:              getEnvWithDefault("CATALOG_PATH", filepath.Join(wd, "catalog.yaml")),
		SongsDir:                 getEnvWithDefault("SONGS_DIR", filepath.Join(dataDir, "songs")),
		DefaultVersions:          splitList(os.Getenv("DEFAULT_VERSIONS")),
		ForcePassword:            os.Getenv("FORCE_PASSWORD"),
		KickPassword:             os.Getenv("KICK_PASSWORD"),
		StorageType:              getEnvWithDefault("STORAGE_TYPE", "memory"),
		SQLitePath:               getEnvWithDefault("SQLITE_PATH", filepath.Join(dataDir, "history.db")),
		ElasticsearchURL:         os.Getenv("ELASTICSEARCH_URL"),
		ElasticsearchUsername:    os.Getenv("ELASTICSEARCH_USERNAME"),
		ElasticsearchPassword:    os.Getenv("ELASTICSEARCH_PASSWORD"),
		ElasticsearchIndexPrefix: getEnvWithDefault("ELASTICSEARCH_INDEX_PREFIX", "gamemaster"),
		WebsiteURL:               strings.TrimRight(os.Getenv("WEBSITE_URL"), "/"),
		WebsiteToken:             os.Getenv("WEBSITE_TOKEN"),
	}

	var errs []string
	intVar := func(key string, def int, target *int) {
		v, err := strconv.Atoi(getEnvWithDefault(key, strconv.Itoa(def)))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s must be an integer", key))
			return
		}
		*target = v
	}
	durationVar := func(key string, def time.Duration, target *time.Duration) {
		v, err := time.ParseDuration(getEnvWithDefault(key, def.String()))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s must be a duration", key))
			return
		}
		*target = v
	}

	intVar("MAX_GUILDS", 1, &cfg.MaxGuilds)
	intVar("MAX_PENDING_GUILDS", 5, &cfg.MaxPendingGuilds)
	intVar("EVENT_WORKERS", 4, &cfg.EventWorkers)
	durationVar("HEARTBEAT_INTERVAL", 10*time.Minute, &cfg.HeartbeatInterval)
	durationVar("HISTORY_RETENTION", 30*24*time.Hour, &cfg.HistoryRetention)

	rate, err := strconv.ParseFloat(getEnvWithDefault("REACTION_RATE", "5"), 64)
	if err != nil {
		errs = append(errs, "REACTION_RATE must be a number")
	}
	cfg.ReactionRate = rate

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// validate checks if all required configuration is present
func (c *Config) validate() error {
	if c.Token == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	if c.MaxGuilds < 1 {
		return fmt.Errorf("MAX_GUILDS must be at least 1")
	}
	if c.MaxPendingGuilds < 0 {
		return fmt.Errorf("MAX_PENDING_GUILDS cannot be negative")
	}
	if c.EventWorkers < 1 {
		return fmt.Errorf("EVENT_WORKERS must be at least 1")
	}
	if c.ReactionRate <= 0 {
		return fmt.Errorf("REACTION_RATE must be positive")
	}
	switch c.StorageType {
	case "memory", "sqlite":
	case "elasticsearch":
		if c.ElasticsearchURL == "" {
			return fmt.Errorf("ELASTICSEARCH_URL is required for elasticsearch storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE_TYPE %q", c.StorageType)
	}
	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// getEnvWithDefault returns environment variable value or default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
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
