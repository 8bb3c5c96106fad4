package indicators

import (
	"github.com/cinar/indicator"
	"github.com/markcheno/go-talib"
	"go.uber.org/zap"

	"github.com/selivandex/sentiment-lab/pkg/logger"
	"github.com/selivandex/sentiment-lab/pkg/models"
)

// Indicator periods
const (
	SMAShortPeriod  = 20
	SMALongPeriod   = 50
	BollingerPeriod = 20
	BollingerStdDev = 2.0
	ATRPeriod       = 14
	StochKPeriod    = 14
	StochSlowPeriod = 3
	StochDPeriod    = 3
)

// MinBars is the warmup needed before every indicator is defined
const MinBars = SMALongPeriod

// Calculator calculates technical indicators from daily price bars
type Calculator struct{}

// NewCalculator creates new indicator calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Calculate computes indicators for the bars of one stock, sorted ascending by date.
// Rows are emitted from the first bar where all indicators have warmed up.
func (c *Calculator) Calculate(bars []models.PriceBar) ([]models.IndicatorRow, error) {
	stock := ""
	if len(bars) > 0 {
		stock = bars[0].Stock
	}
	if len(bars) < MinBars {
		return nil, &models.InsufficientDataError{Stock: stock, Found: len(bars), Required: MinBars}
	}

	// Extract price and volume data
	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	volumes := make([]float64, len(bars))

	for i, bar := range bars {
		if bar.Stock != stock {
			return nil, &models.DataIntegrityError{Stock: stock, Date: bar.TradingDate, Reason: "bars mix stocks"}
		}
		closes[i] = bar.Close.InexactFloat64()
		highs[i] = bar.High.InexactFloat64()
		lows[i] = bar.Low.InexactFloat64()
		volumes[i] = bar.Volume.InexactFloat64()
	}

	// Trend and momentum (RSI 14, MACD 12/26/9)
	sma20 := indicator.Sma(SMAShortPeriod, closes)
	sma50 := indicator.Sma(SMALongPeriod, closes)
	ema12 := indicator.Ema(12, closes)
	ema26 := indicator.Ema(26, closes)
	_, rsi := indicator.Rsi(closes)
	macdLine, signalLine := indicator.Macd(closes)

	// Volatility and volume
	bbUpper, bbMiddle, bbLower := talib.BBands(closes, BollingerPeriod, BollingerStdDev, BollingerStdDev, talib.SMA)
	atr := talib.Atr(highs, lows, closes, ATRPeriod)
	slowK, slowD := talib.Stoch(highs, lows, closes, StochKPeriod, StochSlowPeriod, talib.SMA, StochDPeriod, talib.SMA)
	obv := talib.Obv(closes, volumes)

	rows := make([]models.IndicatorRow, 0, len(bars)-MinBars+1)
	for i := MinBars - 1; i < len(bars); i++ {
		rows = append(rows, models.IndicatorRow{
			TradingDate: bars[i].TradingDate,
			Stock:       stock,
			Close:       closes[i],
			SMA20:       sma20[i],
			SMA50:       sma50[i],
			EMA12:       ema12[i],
			EMA26:       ema26[i],
			RSI:         rsi[i],
			MACD:        macdLine[i],
			MACDSignal:  signalLine[i],
			MACDHist:    macdLine[i] - signalLine[i],
			BBUpper:     bbUpper[i],
			BBMiddle:    bbMiddle[i],
			BBLower:     bbLower[i],
			ATR:         atr[i],
			StochK:      slowK[i],
			StochD:      slowD[i],
			OBV:         obv[i],
		})
	}

	logger.Debug("indicators calculated",
		zap.String("stock", stock),
		zap.Int("bars", len(bars)),
		zap.Int("rows", len(rows)),
	)

	return rows, nil
}

// LatestByStock returns the most recent row of every stock
func LatestByStock(rows []models.IndicatorRow) map[string]models.IndicatorRow {
	latest := make(map[string]models.IndicatorRow)
	for _, row := range rows {
		if cur, ok := latest[row.Stock]; !ok || row.TradingDate.After(cur.TradingDate) {
			latest[row.Stock] = row
		}
	}
	return latest
}

// DetectTrend classifies the latest row as uptrend, downtrend or sideways
// from price position against the short and long moving averages
func DetectTrend(row models.IndicatorRow) string {
	switch {
	case row.Close > row.SMA20 && row.SMA20 > row.SMA50:
		return "uptrend"
	case row.Close < row.SMA20 && row.SMA20 < row.SMA50:
		return "downtrend"
	default:
		return "sideways"
	}
}
