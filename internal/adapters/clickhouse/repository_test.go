package clickhouse

import (
	"context"
	"os"
	"testing"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/sentiment-lab/pkg/models"
)

func setupClickHouse(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("TEST_CLICKHOUSE_DSN")
	if dsn == "" {
		t.Skip("TEST_CLICKHOUSE_DSN not set, skipping ClickHouse test")
	}

	db, err := sqlx.Connect("clickhouse", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestRepository_AlignedPairs(t *testing.T) {
	db := setupClickHouse(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.EnsureSchema(ctx))

	runID := uuid.New()
	day := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	pairs := []models.AlignedPair{
		{TradingDate: day, Stock: "AAPL", MeanPolarity: 0.3, PctReturn: 0.01},
		{TradingDate: day.AddDate(0, 0, 1), Stock: "AAPL", MeanPolarity: -0.1, PctReturn: -0.02},
	}

	require.NoError(t, repo.SaveAlignedPairs(ctx, runID, pairs))

	var count int
	require.NoError(t, db.GetContext(ctx, &count, "SELECT count() FROM aligned_pairs WHERE run_id = ?", runID))
	assert.Equal(t, 2, count)
}

func TestRepository_LoadPriceBars(t *testing.T) {
	db := setupClickHouse(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS market_ohlcv (
			timestamp DateTime,
			symbol    String,
			timeframe String,
			open      Float64,
			high      Float64,
			low       Float64,
			close     Float64,
			volume    Float64
		) ENGINE = MergeTree()
		ORDER BY (symbol, timeframe, timestamp)
	`)
	require.NoError(t, err)

	bars, err := repo.LoadPriceBars(ctx, []string{"NO_SUCH_SYMBOL"})
	require.NoError(t, err)
	assert.Empty(t, bars)
}
