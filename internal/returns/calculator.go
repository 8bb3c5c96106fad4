package returns

import (
	"go.uber.org/zap"

	"github.com/selivandex/sentiment-lab/pkg/logger"
	"github.com/selivandex/sentiment-lab/pkg/models"
)

// Calculator converts closing prices into simple daily returns
type Calculator struct{}

// NewCalculator creates new return calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Calculate computes returns for bars of any number of stocks.
// Each stock's bars must already be sorted ascending by date.
func (c *Calculator) Calculate(bars []models.PriceBar) ([]models.DailyReturn, error) {
	order, byStock := GroupByStock(bars)

	out := make([]models.DailyReturn, 0, len(bars))
	for _, stock := range order {
		series, err := c.CalculateSeries(byStock[stock])
		if err != nil {
			return nil, err
		}
		out = append(out, series...)
	}

	return out, nil
}

// CalculateSeries computes returns for the bars of a single stock.
// The first bar yields no return; n bars give n-1 returns.
func (c *Calculator) CalculateSeries(bars []models.PriceBar) ([]models.DailyReturn, error) {
	if len(bars) == 0 {
		return nil, nil
	}

	stock := bars[0].Stock
	if err := validateSeries(stock, bars); err != nil {
		return nil, err
	}

	out := make([]models.DailyReturn, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev, cur := bars[i-1], bars[i]

		if prev.Close.IsZero() {
			return nil, &models.ArithmeticError{
				Stock: stock,
				Date:  cur.TradingDate,
				Op:    "division by zero previous close",
			}
		}

		ret := cur.Close.Sub(prev.Close).Div(prev.Close)
		out = append(out, models.DailyReturn{
			TradingDate: cur.TradingDate,
			Stock:       stock,
			PctReturn:   ret.InexactFloat64(),
		})
	}

	logger.Debug("daily returns calculated",
		zap.String("stock", stock),
		zap.Int("bars", len(bars)),
		zap.Int("returns", len(out)),
	)

	return out, nil
}

// validateSeries checks that bars belong to one stock with strictly ascending dates
func validateSeries(stock string, bars []models.PriceBar) error {
	for i, bar := range bars {
		if bar.Stock != stock {
			return &models.DataIntegrityError{
				Stock:  stock,
				Date:   bar.TradingDate,
				Reason: "series mixes stocks " + stock + " and " + bar.Stock,
			}
		}
		if bar.Close.IsNegative() {
			return &models.DataIntegrityError{Stock: stock, Date: bar.TradingDate, Reason: "negative close"}
		}
		if i == 0 {
			continue
		}

		prev := bars[i-1].TradingDate
		switch {
		case bar.TradingDate.Equal(prev):
			return &models.DataIntegrityError{Stock: stock, Date: bar.TradingDate, Reason: "duplicate trading date"}
		case bar.TradingDate.Before(prev):
			return &models.DataIntegrityError{Stock: stock, Date: bar.TradingDate, Reason: "bars not sorted ascending by date"}
		}
	}
	return nil
}

// GroupByStock splits bars per stock, keeping first-seen stock order and bar order
func GroupByStock(bars []models.PriceBar) ([]string, map[string][]models.PriceBar) {
	var order []string
	byStock := make(map[string][]models.PriceBar)
	for _, bar := range bars {
		if _, ok := byStock[bar.Stock]; !ok {
			order = append(order, bar.Stock)
		}
		byStock[bar.Stock] = append(byStock[bar.Stock], bar)
	}
	return order, byStock
}
