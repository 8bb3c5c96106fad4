package sentiment

import (
	"sort"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/selivandex/sentiment-lab/pkg/logger"
	"github.com/selivandex/sentiment-lab/pkg/models"
)

// DefaultSourceOffsetHours is the UTC offset news timestamps are published in
const DefaultSourceOffsetHours = -4

// Aggregator turns scored headlines into one DailySentiment per (stock, calendar day)
type Aggregator struct {
	scorer Scorer
	loc    *time.Location
}

// NewAggregator creates aggregator; timestamps are truncated to days as seen in loc.
// A nil loc uses the default UTC-4 source offset.
func NewAggregator(scorer Scorer, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = models.FixedOffset(DefaultSourceOffsetHours)
	}
	return &Aggregator{
		scorer: scorer,
		loc:    loc,
	}
}

type dayGroup struct {
	polarities []float64
	labels     map[models.SentimentLabel]int
}

// Aggregate scores every record and averages polarity per (stock, day).
// Days without records are absent from the output, which is sorted by stock then date.
func (a *Aggregator) Aggregate(records []models.NewsRecord) []models.DailySentiment {
	groups := make(map[models.DayKey]*dayGroup)

	for _, rec := range records {
		score := a.scorer.Score(rec.Headline)
		key := models.DayKey{
			Stock: rec.Stock,
			Date:  models.TruncateDay(rec.Date, a.loc),
		}

		g, ok := groups[key]
		if !ok {
			g = &dayGroup{labels: make(map[models.SentimentLabel]int)}
			groups[key] = g
		}
		g.polarities = append(g.polarities, score.Polarity)
		g.labels[score.Label]++
	}

	keys := make([]models.DayKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	out := make([]models.DailySentiment, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		mean, std := stat.MeanStdDev(g.polarities, nil)
		if len(g.polarities) < 2 {
			std = 0
		}
		out = append(out, models.DailySentiment{
			TradingDate:   k.Date,
			Stock:         k.Stock,
			DominantLabel: dominantLabel(g.labels),
			MeanPolarity:  mean,
			StdPolarity:   std,
			ArticleCount:  len(g.polarities),
		})
	}

	logger.Debug("daily sentiment aggregated",
		zap.Int("records", len(records)),
		zap.Int("days", len(out)),
	)

	return out
}

// dominantLabel returns the most frequent label, ties broken alphabetically
func dominantLabel(counts map[models.SentimentLabel]int) models.SentimentLabel {
	best := models.LabelNeutral
	bestCount := 0
	for label, n := range counts {
		if n > bestCount || (n == bestCount && label < best) {
			best = label
			bestCount = n
		}
	}
	return best
}
