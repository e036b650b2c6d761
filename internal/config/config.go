package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Input sources for the match log
const (
	InputCSV      = "csv"
	InputDatabase = "database"
)

// Config holds all application configuration
type Config struct {
	// Tables
	DataDir       string `envconfig:"DATA_DIR" default:"Data"`
	InputFile     string `envconfig:"INPUT_FILE" default:"agg_match_data.csv"`
	TrainingFile  string `envconfig:"TRAINING_FILE" default:"training_data.csv"`
	TeamFile      string `envconfig:"TEAM_FILE" default:"team_data.csv"`
	TeamCodesFile string `envconfig:"TEAM_CODES_FILE" default:"team_codes.csv"`
	InputSource   string `envconfig:"INPUT_SOURCE" default:"csv"`

	// Features
	RollingWindow     int  `envconfig:"ROLLING_WINDOW" default:"5"`
	RollingMinPeriods int  `envconfig:"ROLLING_MIN_PERIODS" default:"3"`
	StrictCategories  bool `envconfig:"STRICT_CATEGORIES" default:"false"`
	Workers           int  `envconfig:"WORKERS" default:"4"`

	// Database
	DatabaseEnabled  bool   `envconfig:"DATABASE_ENABLED" default:"false"`
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"matchform"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"matchform"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" default:""`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Redis
	RedisEnabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Caching TTL (in seconds)
	CacheTTLTeams int `envconfig:"CACHE_TTL_TEAMS" default:"86400"` // 24 hours

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Scheduler
	EnableScheduler bool   `envconfig:"ENABLE_SCHEDULER" default:"false"`
	RebuildCron     string `envconfig:"REBUILD_CRON" default:"0 3 * * *"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if present
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.RollingMinPeriods < 1 {
		return fmt.Errorf("ROLLING_MIN_PERIODS must be at least 1")
	}

	if c.RollingWindow < c.RollingMinPeriods {
		return fmt.Errorf("ROLLING_WINDOW (%d) must not be smaller than ROLLING_MIN_PERIODS (%d)",
			c.RollingWindow, c.RollingMinPeriods)
	}

	if c.Workers < 1 {
		return fmt.Errorf("WORKERS must be at least 1")
	}

	switch strings.ToLower(c.InputSource) {
	case InputCSV:
	case InputDatabase:
		if !c.DatabaseEnabled {
			return fmt.Errorf("INPUT_SOURCE=database requires DATABASE_ENABLED")
		}
	default:
		return fmt.Errorf("INPUT_SOURCE must be %q or %q, got %q", InputCSV, InputDatabase, c.InputSource)
	}

	if c.DatabaseEnabled && c.DatabasePassword == "" && c.AppEnv == "production" {
		return fmt.Errorf("DATABASE_PASSWORD is required in production")
	}

	if c.EnableScheduler && strings.TrimSpace(c.RebuildCron) == "" {
		return fmt.Errorf("REBUILD_CRON is required when the scheduler is enabled")
	}

	if c.CacheTTLTeams < 0 {
		return fmt.Errorf("CACHE_TTL_TEAMS must not be negative")
	}

	return nil
}

// InputPath returns the match log location
func (c *Config) InputPath() string {
	return filepath.Join(c.DataDir, c.InputFile)
}

// TrainingPath returns the training table location
func (c *Config) TrainingPath() string {
	return filepath.Join(c.DataDir, c.TrainingFile)
}

// TeamPath returns the team table location
func (c *Config) TeamPath() string {
	return filepath.Join(c.DataDir, c.TeamFile)
}

// TeamCodesPath returns the team code table location
func (c *Config) TeamCodesPath() string {
	return filepath.Join(c.DataDir, c.TeamCodesFile)
}

// ReadsFromDatabase reports whether raw records come from match_records
func (c *Config) ReadsFromDatabase() bool {
	return strings.EqualFold(c.InputSource, InputDatabase)
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseName,
		c.DatabaseSSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
