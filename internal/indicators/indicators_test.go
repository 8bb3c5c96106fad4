package indicators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/sentiment-lab/pkg/models"
)

func TestCalculator_Calculate(t *testing.T) {
	calc := NewCalculator()

	// Generate sample bars (trending up)
	bars := generateTestBars("AAPL", 80, 150, 0.01)

	rows, err := calc.Calculate(bars)
	require.NoError(t, err)
	require.Len(t, rows, 80-MinBars+1)

	last := rows[len(rows)-1]
	assert.Equal(t, bars[len(bars)-1].TradingDate, last.TradingDate)
	assert.Equal(t, "AAPL", last.Stock)

	var sum float64
	for _, b := range bars[len(bars)-SMAShortPeriod:] {
		sum += b.Close.InexactFloat64()
	}
	assert.InDelta(t, sum/SMAShortPeriod, last.SMA20, 1e-6)

	assert.GreaterOrEqual(t, last.RSI, 0.0)
	assert.LessOrEqual(t, last.RSI, 100.0)

	assert.Greater(t, last.BBUpper, last.BBMiddle, "upper band should be above middle")
	assert.Greater(t, last.BBMiddle, last.BBLower, "middle band should be above lower")
	assert.Greater(t, last.ATR, 0.0)
	assert.InDelta(t, last.MACD-last.MACDSignal, last.MACDHist, 1e-12)

	// Rising closes accumulate volume
	assert.Greater(t, last.OBV, rows[0].OBV)
}

func TestCalculator_InsufficientData(t *testing.T) {
	calc := NewCalculator()

	_, err := calc.Calculate(generateTestBars("AAPL", 10, 150, 0.01))
	require.ErrorIs(t, err, models.ErrInsufficientData)

	var insufficient *models.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 10, insufficient.Found)
	assert.Equal(t, MinBars, insufficient.Required)
}

func TestCalculator_MixedStocks(t *testing.T) {
	bars := generateTestBars("AAPL", 60, 150, 0.01)
	bars[30].Stock = "MSFT"

	_, err := NewCalculator().Calculate(bars)
	require.ErrorIs(t, err, models.ErrDataIntegrity)
}

func TestDetectTrend(t *testing.T) {
	calc := NewCalculator()

	t.Run("uptrend", func(t *testing.T) {
		rows, err := calc.Calculate(generateTestBars("UP", 60, 100, 0.02))
		require.NoError(t, err)

		assert.Equal(t, "uptrend", DetectTrend(rows[len(rows)-1]))
	})

	t.Run("downtrend", func(t *testing.T) {
		rows, err := calc.Calculate(generateTestBars("DOWN", 60, 100, -0.02))
		require.NoError(t, err)

		assert.Equal(t, "downtrend", DetectTrend(rows[len(rows)-1]))
	})

	t.Run("sideways", func(t *testing.T) {
		row := models.IndicatorRow{Close: 100, SMA20: 101, SMA50: 99}
		assert.Equal(t, "sideways", DetectTrend(row))
	})
}

func TestLatestByStock(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
	rows := []models.IndicatorRow{
		{Stock: "AAPL", TradingDate: day(1), Close: 100},
		{Stock: "AAPL", TradingDate: day(2), Close: 101},
		{Stock: "MSFT", TradingDate: day(2), Close: 300},
		{Stock: "MSFT", TradingDate: day(1), Close: 299},
	}

	latest := LatestByStock(rows)
	require.Len(t, latest, 2)
	assert.Equal(t, 101.0, latest["AAPL"].Close)
	assert.Equal(t, 300.0, latest["MSFT"].Close)

	assert.Empty(t, LatestByStock(nil))
}

// generateTestBars builds daily bars compounding at trend per day
func generateTestBars(stock string, count int, startPrice, trend float64) []models.PriceBar {
	bars := make([]models.PriceBar, count)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	price := startPrice

	for i := 0; i < count; i++ {
		open := price
		closePrice := price * (1 + trend)
		high := max(open, closePrice) * 1.002
		low := min(open, closePrice) * 0.998

		bars[i] = models.PriceBar{
			Stock:       stock,
			TradingDate: start.AddDate(0, 0, i),
			Open:        models.NewDecimal(open),
			High:        models.NewDecimal(high),
			Low:         models.NewDecimal(low),
			Close:       models.NewDecimal(closePrice),
			Volume:      models.NewDecimal(1000 + float64(i)*20),
		}

		price = closePrice
	}

	return bars
}
