package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("INPUT_NEWS_PATH", "data/news.csv")
	t.Setenv("INPUT_PRICE_PATH", "data/prices")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Pipeline.MinSamples)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.False(t, cfg.Pipeline.FailFast)
	assert.Equal(t, -4, cfg.Pipeline.NewsUTCOffsetHours)
	assert.True(t, cfg.Pipeline.IndicatorsEnabled)
	assert.Equal(t, SourceFile, cfg.Input.NewsSource)
	assert.True(t, cfg.Input.DropMalformed)
	assert.Equal(t, "results.csv", cfg.Output.ResultsPath)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("INPUT_NEWS_PATH", "news.json")
	t.Setenv("INPUT_PRICE_PATH", "prices")
	t.Setenv("INPUT_STOCKS", " aapl, ,msft")
	t.Setenv("PIPELINE_WORKERS", "8")
	t.Setenv("PIPELINE_FAIL_FAST", "true")
	t.Setenv("DATABASE_ENABLED", "true")
	t.Setenv("DATABASE_HOST", "db.internal")
	t.Setenv("DATABASE_USER", "analyst")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Input.Stocks)
	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.True(t, cfg.Pipeline.FailFast)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "analyst", cfg.Database.User)
}

func TestLoad_FlagOverrides(t *testing.T) {
	t.Setenv("INPUT_NEWS_PATH", "")
	t.Setenv("INPUT_PRICE_PATH", "")

	_, err := Load()
	require.Error(t, err, "paths are required without overrides")

	cfg, err := Load(func(c *Config) {
		c.Input.NewsPath = "flag-news.csv"
		c.Input.PricePath = "flag-prices"
	})
	require.NoError(t, err)
	assert.Equal(t, "flag-news.csv", cfg.Input.NewsPath)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Pipeline: PipelineConfig{MinSamples: 2, Workers: 4, NewsUTCOffsetHours: -4},
			Input:    InputConfig{NewsSource: SourceFile, NewsPath: "n.csv", PriceSource: SourceFile, PricePath: "p"},
			Output:   OutputConfig{ResultsPath: "results.csv"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "min samples below two", mutate: func(c *Config) { c.Pipeline.MinSamples = 1 }, wantErr: "min_samples"},
		{name: "no workers", mutate: func(c *Config) { c.Pipeline.Workers = 0 }, wantErr: "workers"},
		{name: "offset out of range", mutate: func(c *Config) { c.Pipeline.NewsUTCOffsetHours = 20 }, wantErr: "offset"},
		{name: "missing news path", mutate: func(c *Config) { c.Input.NewsPath = "" }, wantErr: "news path"},
		{name: "unknown news source", mutate: func(c *Config) { c.Input.NewsSource = "s3" }, wantErr: "unknown news source"},
		{name: "postgres news without database", mutate: func(c *Config) { c.Input.NewsSource = SourcePostgres }, wantErr: "DATABASE_ENABLED"},
		{name: "clickhouse prices without clickhouse", mutate: func(c *Config) { c.Input.PriceSource = SourceClickHouse }, wantErr: "CLICKHOUSE_ENABLED"},
		{name: "save aligned without clickhouse", mutate: func(c *Config) { c.ClickHouse.SaveAligned = true }, wantErr: "aligned"},
		{
			name: "postgres news with database",
			mutate: func(c *Config) {
				c.Input.NewsSource = SourcePostgres
				c.Database.Enabled = true
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetDSN(t *testing.T) {
	db := DatabaseConfig{Host: "localhost", Port: 5432, User: "u", Password: "p", Name: "sentiment", SSLMode: "disable"}
	assert.Equal(t, "host=localhost port=5432 user=u password=p dbname=sentiment sslmode=disable", db.GetDSN())

	ch := ClickHouseConfig{Host: "ch", Port: 9000, User: "default", Password: "", Database: "market"}
	assert.Equal(t, "clickhouse://default:@ch:9000/market", ch.GetDSN())
}

func TestSourceLocation(t *testing.T) {
	cfg := PipelineConfig{NewsUTCOffsetHours: -4}
	_, offset := time.Now().In(cfg.SourceLocation()).Zone()
	assert.Equal(t, -4*3600, offset)
}
