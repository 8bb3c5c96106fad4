package returns

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/sentiment-lab/pkg/models"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func barsFor(stock string, closes ...float64) []models.PriceBar {
	bars := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = models.PriceBar{
			Stock:       stock,
			TradingDate: day0.AddDate(0, 0, i),
			Open:        models.NewDecimal(c),
			High:        models.NewDecimal(c),
			Low:         models.NewDecimal(c),
			Close:       models.NewDecimal(c),
			Volume:      models.NewDecimal(1000),
		}
	}
	return bars
}

func TestCalculator_Scenario(t *testing.T) {
	calc := NewCalculator()

	rets, err := calc.Calculate(barsFor("AAPL", 100, 105, 103))
	require.NoError(t, err)
	require.Len(t, rets, 2)

	assert.InDelta(t, 0.05, rets[0].PctReturn, 1e-12)
	assert.InDelta(t, -0.0190476190, rets[1].PctReturn, 1e-9)
	assert.Equal(t, day0.AddDate(0, 0, 1), rets[0].TradingDate)
	assert.Equal(t, "AAPL", rets[1].Stock)
}

func TestCalculator_LengthProperty(t *testing.T) {
	calc := NewCalculator()

	closes := []float64{10, 11, 12.5, 9.75, 9.75, 14, 13.2, 20}
	for n := 1; n <= len(closes); n++ {
		bars := barsFor("XYZ", closes[:n]...)

		rets, err := calc.Calculate(bars)
		require.NoError(t, err)
		require.Len(t, rets, n-1)

		for i, r := range rets {
			want := (closes[i+1] - closes[i]) / closes[i]
			assert.InDelta(t, want, r.PctReturn, 1e-12)
		}
	}
}

func TestCalculator_MultipleStocks(t *testing.T) {
	calc := NewCalculator()

	bars := append(barsFor("AAPL", 100, 110), barsFor("MSFT", 50, 45, 45)...)

	rets, err := calc.Calculate(bars)
	require.NoError(t, err)
	require.Len(t, rets, 3)
	assert.Equal(t, "AAPL", rets[0].Stock)
	assert.InDelta(t, 0.1, rets[0].PctReturn, 1e-12)
	assert.InDelta(t, -0.1, rets[1].PctReturn, 1e-12)
	assert.Zero(t, rets[2].PctReturn)
}

func TestCalculator_Errors(t *testing.T) {
	calc := NewCalculator()

	t.Run("duplicate date", func(t *testing.T) {
		bars := barsFor("AAPL", 100, 101, 102)
		bars[2].TradingDate = bars[1].TradingDate

		_, err := calc.Calculate(bars)
		require.ErrorIs(t, err, models.ErrDataIntegrity)

		var integrity *models.DataIntegrityError
		require.ErrorAs(t, err, &integrity)
		assert.Equal(t, "AAPL", integrity.Stock)
		assert.Equal(t, "duplicate trading date", integrity.Reason)
	})

	t.Run("unsorted dates", func(t *testing.T) {
		bars := barsFor("AAPL", 100, 101)
		bars[0], bars[1] = bars[1], bars[0]

		_, err := calc.Calculate(bars)
		require.ErrorIs(t, err, models.ErrDataIntegrity)
	})

	t.Run("zero close", func(t *testing.T) {
		_, err := calc.Calculate(barsFor("PENNY", 0, 1))
		require.ErrorIs(t, err, models.ErrArithmetic)

		var arith *models.ArithmeticError
		require.ErrorAs(t, err, &arith)
		assert.Equal(t, "PENNY", arith.Stock)
	})

	t.Run("negative close", func(t *testing.T) {
		_, err := calc.Calculate(barsFor("BAD", 10, -1))
		require.ErrorIs(t, err, models.ErrDataIntegrity)
	})

	t.Run("mixed series", func(t *testing.T) {
		bars := barsFor("AAPL", 1, 2)
		bars[1].Stock = "MSFT"

		_, err := calc.CalculateSeries(bars)
		require.ErrorIs(t, err, models.ErrDataIntegrity)
	})
}

func TestCalculator_Empty(t *testing.T) {
	rets, err := NewCalculator().Calculate(nil)
	require.NoError(t, err)
	assert.Empty(t, rets)
}

func TestGroupByStock(t *testing.T) {
	bars := append(barsFor("MSFT", 1, 2), barsFor("AAPL", 3)...)
	bars = append(bars, barsFor("MSFT", 4)...)

	order, byStock := GroupByStock(bars)
	assert.Equal(t, []string{"MSFT", "AAPL"}, order)
	assert.Len(t, byStock["MSFT"], 3)
	assert.Len(t, byStock["AAPL"], 1)
}
