package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/selivandex/sentiment-lab/pkg/models"
)

// Input source kinds
const (
	SourceFile       = "file"
	SourcePostgres   = "postgres"
	SourceClickHouse = "clickhouse"
)

// Config represents application configuration
type Config struct {
	Pipeline   PipelineConfig   `envconfig:"PIPELINE"`
	Input      InputConfig      `envconfig:"INPUT"`
	Output     OutputConfig     `envconfig:"OUTPUT"`
	Database   DatabaseConfig   `envconfig:"DATABASE"`
	ClickHouse ClickHouseConfig `envconfig:"CLICKHOUSE"`
	Logging    LoggingConfig    `envconfig:"LOGGING"`
}

// PipelineConfig represents analysis parameters
type PipelineConfig struct {
	MinSamples         int  `envconfig:"MIN_SAMPLES" default:"2"`
	Workers            int  `envconfig:"WORKERS" default:"4"`
	FailFast           bool `envconfig:"FAIL_FAST" default:"false"`
	NewsUTCOffsetHours int  `envconfig:"NEWS_UTC_OFFSET_HOURS" default:"-4"`
	IndicatorsEnabled  bool `envconfig:"INDICATORS_ENABLED" default:"true"`
}

// InputConfig represents where news and prices are read from
type InputConfig struct {
	NewsSource    string   `envconfig:"NEWS_SOURCE" default:"file"`
	NewsPath      string   `envconfig:"NEWS_PATH"`
	PriceSource   string   `envconfig:"PRICE_SOURCE" default:"file"`
	PricePath     string   `envconfig:"PRICE_PATH"`
	Stocks        []string `envconfig:"STOCKS"`
	DropMalformed bool     `envconfig:"DROP_MALFORMED" default:"true"`
}

// OutputConfig represents result destinations
type OutputConfig struct {
	ResultsPath    string `envconfig:"RESULTS_PATH" default:"results.csv"`
	IndicatorsPath string `envconfig:"INDICATORS_PATH"`
	Summary        bool   `envconfig:"SUMMARY" default:"true"`
}

// DatabaseConfig represents database connection parameters.
// Single-word fields are keyed by field name so envconfig never falls back to bare USER or HOST.
type DatabaseConfig struct {
	Enabled        bool   `default:"false"`
	Host           string `default:"localhost"`
	Port           int    `default:"5432"`
	Name           string `default:"sentiment"`
	User           string `default:"postgres"`
	Password       string
	SSLMode        string `envconfig:"SSLMODE" default:"disable"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"migrations"`
}

// ClickHouseConfig represents ClickHouse connection parameters
type ClickHouseConfig struct {
	Enabled     bool   `default:"false"`
	Host        string `default:"localhost"`
	Port        int    `default:"9000"`
	Database    string `default:"default"`
	User        string `default:"default"`
	Password    string
	SaveAligned bool `envconfig:"SAVE_ALIGNED" default:"false"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `default:"info"`
	File  string
}

// Load reads configuration from .env (if present) and environment variables.
// Overrides run before validation, e.g. to apply command line flags.
func Load(overrides ...func(*Config)) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config

	// Process environment variables
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	for _, override := range overrides {
		override(&cfg)
	}
	cfg.Input.Stocks = normalizeStocks(cfg.Input.Stocks)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Pipeline.MinSamples < 2 {
		return fmt.Errorf("min_samples must be at least 2")
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.Pipeline.NewsUTCOffsetHours < -12 || c.Pipeline.NewsUTCOffsetHours > 14 {
		return fmt.Errorf("news_utc_offset_hours must be between -12 and 14")
	}

	switch c.Input.NewsSource {
	case SourceFile:
		if c.Input.NewsPath == "" {
			return fmt.Errorf("news path is required for file source")
		}
	case SourcePostgres:
		if !c.Database.Enabled {
			return fmt.Errorf("news source postgres requires DATABASE_ENABLED")
		}
	default:
		return fmt.Errorf("unknown news source %q", c.Input.NewsSource)
	}

	switch c.Input.PriceSource {
	case SourceFile:
		if c.Input.PricePath == "" {
			return fmt.Errorf("price path is required for file source")
		}
	case SourceClickHouse:
		if !c.ClickHouse.Enabled {
			return fmt.Errorf("price source clickhouse requires CLICKHOUSE_ENABLED")
		}
	default:
		return fmt.Errorf("unknown price source %q", c.Input.PriceSource)
	}

	if c.Output.ResultsPath == "" {
		return fmt.Errorf("results path is required")
	}
	if c.ClickHouse.SaveAligned && !c.ClickHouse.Enabled {
		return fmt.Errorf("saving aligned pairs requires CLICKHOUSE_ENABLED")
	}

	return nil
}

// SourceLocation returns the fixed offset news timestamps are published in
func (c *PipelineConfig) SourceLocation() *time.Location {
	return models.FixedOffset(c.NewsUTCOffsetHours)
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// GetDSN returns ClickHouse connection string
func (c *ClickHouseConfig) GetDSN() string {
	return fmt.Sprintf(
		"clickhouse://%s:%s@%s:%d/%s",
		c.User, c.Password, c.Host, c.Port, c.Database,
	)
}

func normalizeStocks(stocks []string) []string {
	var out []string
	for _, s := range stocks {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
