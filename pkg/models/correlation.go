package models

import (
	"time"

	"github.com/google/uuid"
)

// AlignedPair joins daily sentiment and daily return of the same stock and day
type AlignedPair struct {
	TradingDate  time.Time `json:"trading_date" db:"trading_date"`
	Stock        string    `json:"stock" db:"stock"`
	MeanPolarity float64   `json:"mean_polarity" db:"mean_polarity"`
	PctReturn    float64   `json:"pct_return" db:"pct_return"`
}

// CorrelationResult is the per-stock statistical verdict
type CorrelationResult struct {
	Stock      string  `json:"stock" db:"stock"`
	PearsonR   float64 `json:"pearson_r" db:"pearson_r"`
	PearsonP   float64 `json:"pearson_p" db:"pearson_p"`
	SpearmanR  float64 `json:"spearman_r" db:"spearman_r"`
	SpearmanP  float64 `json:"spearman_p" db:"spearman_p"`
	SampleSize int     `json:"sample_size" db:"sample_size"`
	// Slope and Intercept give the trend line of return on polarity
	Slope      float64 `json:"slope" db:"slope"`
	Intercept  float64 `json:"intercept" db:"intercept"`
}

// StoredCorrelation is a CorrelationResult persisted by one pipeline run
type StoredCorrelation struct {
	CorrelationResult
	ID           uuid.UUID `db:"id"`
	RunID        uuid.UUID `db:"run_id"`
	CalculatedAt time.Time `db:"calculated_at"`
}

// StockFailure records a stock skipped by a run and the stage that rejected it
type StockFailure struct {
	Stock string `json:"stock"`
	Stage string `json:"stage"`
	Err   error  `json:"-"`
}

// Reason returns the failure message
func (f StockFailure) Reason() string {
	if f.Err == nil {
		return ""
	}
	return f.Err.Error()
}
