// Package alignment joins daily sentiment with daily returns on (stock, trading date).
//
// The join is inner: news published on weekends or holidays, and trading days
// without any news, are both dropped.
package alignment

import (
	"sort"

	"go.uber.org/zap"

	"github.com/selivandex/sentiment-lab/pkg/logger"
	"github.com/selivandex/sentiment-lab/pkg/models"
)

// Align inner-joins sentiment and returns. Output is sorted by stock, then date.
// A key that appears twice on the same side is a DataIntegrityError.
func Align(sentiments []models.DailySentiment, returns []models.DailyReturn) ([]models.AlignedPair, error) {
	polarity := make(map[models.DayKey]float64, len(sentiments))
	for _, s := range sentiments {
		key := s.Key()
		if _, dup := polarity[key]; dup {
			return nil, &models.DataIntegrityError{
				Stock:  key.Stock,
				Date:   key.Date,
				Reason: "duplicate daily sentiment row",
			}
		}
		polarity[key] = s.MeanPolarity
	}

	seen := make(map[models.DayKey]struct{}, len(returns))
	pairs := make([]models.AlignedPair, 0, min(len(sentiments), len(returns)))
	for _, r := range returns {
		key := r.Key()
		if _, dup := seen[key]; dup {
			return nil, &models.DataIntegrityError{
				Stock:  key.Stock,
				Date:   key.Date,
				Reason: "duplicate daily return row",
			}
		}
		seen[key] = struct{}{}

		p, ok := polarity[key]
		if !ok {
			continue
		}
		pairs = append(pairs, models.AlignedPair{
			TradingDate:  r.TradingDate,
			Stock:        r.Stock,
			MeanPolarity: p,
			PctReturn:    r.PctReturn,
		})
	}

	sort.Slice(pairs, func(i, j int) bool {
		return models.DayKey{Stock: pairs[i].Stock, Date: pairs[i].TradingDate}.
			Less(models.DayKey{Stock: pairs[j].Stock, Date: pairs[j].TradingDate})
	})

	logger.Debug("series aligned",
		zap.Int("sentiment_days", len(sentiments)),
		zap.Int("return_days", len(returns)),
		zap.Int("aligned", len(pairs)),
	)

	return pairs, nil
}

// SplitByStock groups sorted pairs per stock and returns the stocks in sorted order
func SplitByStock(pairs []models.AlignedPair) ([]string, map[string][]models.AlignedPair) {
	byStock := make(map[string][]models.AlignedPair)
	for _, p := range pairs {
		byStock[p.Stock] = append(byStock[p.Stock], p)
	}

	stocks := make([]string, 0, len(byStock))
	for s := range byStock {
		stocks = append(stocks, s)
	}
	sort.Strings(stocks)

	return stocks, byStock
}
