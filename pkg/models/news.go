package models

import "time"

// SentimentLabel is the coarse class of a polarity score
type SentimentLabel string

const (
	LabelPositive SentimentLabel = "positive"
	LabelNegative SentimentLabel = "negative"
	LabelNeutral  SentimentLabel = "neutral"
)

// Polarity thresholds used to derive a label
const (
	PositiveThreshold = 0.1
	NegativeThreshold = -0.1
)

// LabelFor classifies polarity into positive, negative or neutral
func LabelFor(polarity float64) SentimentLabel {
	switch {
	case polarity > PositiveThreshold:
		return LabelPositive
	case polarity < NegativeThreshold:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// NewsRecord represents single headline from the news table
type NewsRecord struct {
	Date      time.Time `json:"date" db:"published_at"`
	Headline  string    `json:"headline" db:"headline"`
	URL       string    `json:"url" db:"url"`
	Publisher string    `json:"publisher" db:"publisher"`
	Stock     string    `json:"stock" db:"stock"`
}

// SentimentScore is the NLP verdict for one headline
type SentimentScore struct {
	Polarity     float64        `json:"polarity"`     // -1.0 to 1.0
	Subjectivity float64        `json:"subjectivity"` // 0.0 to 1.0
	Label        SentimentLabel `json:"label"`
}

// DailySentiment aggregates all scores of one stock on one calendar day
type DailySentiment struct {
	TradingDate   time.Time      `json:"trading_date"`
	Stock         string         `json:"stock"`
	DominantLabel SentimentLabel `json:"dominant_label"`
	MeanPolarity  float64        `json:"mean_polarity"`
	StdPolarity   float64        `json:"std_polarity"`
	ArticleCount  int            `json:"article_count"`
}

// Key returns the join key of the row
func (d DailySentiment) Key() DayKey {
	return DayKey{Stock: d.Stock, Date: d.TradingDate}
}
