package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// NewDecimal creates decimal from float64
func NewDecimal(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value)
}

// PriceBar is one daily OHLCV row of a stock
type PriceBar struct {
	TradingDate time.Time       `json:"trading_date" db:"trading_date"`
	Stock       string          `json:"stock" db:"symbol"`
	Open        decimal.Decimal `json:"open" db:"open"`
	High        decimal.Decimal `json:"high" db:"high"`
	Low         decimal.Decimal `json:"low" db:"low"`
	Close       decimal.Decimal `json:"close" db:"close"`
	Volume      decimal.Decimal `json:"volume" db:"volume"`
}

// DailyReturn is the simple close-to-close return of a bar
type DailyReturn struct {
	TradingDate time.Time `json:"trading_date"`
	Stock       string    `json:"stock"`
	PctReturn   float64   `json:"pct_return"`
}

// Key returns the join key of the row
func (r DailyReturn) Key() DayKey {
	return DayKey{Stock: r.Stock, Date: r.TradingDate}
}

// IndicatorRow holds technical indicators computed for one bar
type IndicatorRow struct {
	TradingDate time.Time `json:"trading_date"`
	Stock       string    `json:"stock"`
	Close       float64   `json:"close"`
	SMA20       float64   `json:"sma_20"`
	SMA50       float64   `json:"sma_50"`
	EMA12       float64   `json:"ema_12"`
	EMA26       float64   `json:"ema_26"`
	RSI         float64   `json:"rsi"`
	MACD        float64   `json:"macd"`
	MACDSignal  float64   `json:"macd_signal"`
	MACDHist    float64   `json:"macd_hist"`
	BBUpper     float64   `json:"bb_upper"`
	BBMiddle    float64   `json:"bb_middle"`
	BBLower     float64   `json:"bb_lower"`
	ATR         float64   `json:"atr"`
	StochK      float64   `json:"stoch_k"`
	StochD      float64   `json:"stoch_d"`
	OBV         float64   `json:"obv"`
}
