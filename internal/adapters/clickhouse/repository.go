package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/selivandex/sentiment-lab/pkg/logger"
	"github.com/selivandex/sentiment-lab/pkg/models"
)

// DailyTimeframe is the market_ohlcv timeframe holding daily bars
const DailyTimeframe = "1d"

// Repository handles ClickHouse data operations
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new ClickHouse repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the aligned_pairs table when missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS aligned_pairs (
			run_id        UUID,
			trading_date  Date,
			stock         LowCardinality(String),
			mean_polarity Float64,
			pct_return    Float64,
			created_at    DateTime DEFAULT now()
		) ENGINE = MergeTree()
		ORDER BY (stock, trading_date, run_id)
	`)
	if err != nil {
		return fmt.Errorf("failed to create aligned_pairs: %w", err)
	}
	return nil
}

// LoadPriceBars reads daily bars from market_ohlcv ordered by stock and date.
// An empty stocks list loads every symbol.
func (r *Repository) LoadPriceBars(ctx context.Context, stocks []string) ([]models.PriceBar, error) {
	query := `
		SELECT timestamp AS trading_date, symbol, open, high, low, close, volume
		FROM market_ohlcv
		WHERE timeframe = ?
	`
	args := []interface{}{DailyTimeframe}

	if len(stocks) > 0 {
		inQuery, inArgs, err := sqlx.In(query+" AND symbol IN (?)", DailyTimeframe, stocks)
		if err != nil {
			return nil, fmt.Errorf("failed to build query: %w", err)
		}
		query, args = inQuery, inArgs
	}
	query += " ORDER BY symbol, timestamp"

	var bars []models.PriceBar
	if err := r.db.SelectContext(ctx, &bars, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load price bars: %w", err)
	}

	for i := range bars {
		bars[i].TradingDate = models.TruncateDay(bars[i].TradingDate, time.UTC)
	}

	logger.Debug("loaded price bars from ClickHouse",
		zap.Int("count", len(bars)),
		zap.Strings("stocks", stocks),
	)

	return bars, nil
}

// SaveAlignedPairs saves aligned pairs of a run to ClickHouse
func (r *Repository) SaveAlignedPairs(ctx context.Context, runID uuid.UUID, pairs []models.AlignedPair) error {
	if len(pairs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	stmt, err := tx.Preparex(`
		INSERT INTO aligned_pairs
		(run_id, trading_date, stock, mean_polarity, pct_return)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, pair := range pairs {
		_, err = stmt.ExecContext(ctx,
			runID,
			pair.TradingDate,
			pair.Stock,
			pair.MeanPolarity,
			pair.PctReturn,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert aligned pair: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Debug("saved aligned pairs to ClickHouse",
		zap.Int("count", len(pairs)),
	)

	return nil
}
