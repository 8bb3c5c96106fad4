package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/selivandex/sentiment-lab/pkg/models"
)

func TestAnalyzer_Score(t *testing.T) {
	analyzer := NewAnalyzer()

	tests := []struct {
		name     string
		text     string
		expected models.SentimentLabel
	}{
		{
			name:     "bullish headline",
			text:     "Apple shares surge after earnings beat, analysts upgrade",
			expected: models.LabelPositive,
		},
		{
			name:     "bearish headline",
			text:     "Tesla stock plunges as deliveries miss estimates",
			expected: models.LabelNegative,
		},
		{
			name:     "no opinion words",
			text:     "Microsoft to hold annual shareholder meeting on Tuesday",
			expected: models.LabelNeutral,
		},
		{
			name:     "negated positive word",
			text:     "Outlook is not great",
			expected: models.LabelNegative,
		},
		{
			name:     "empty text",
			text:     "",
			expected: models.LabelNeutral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := analyzer.Score(tt.text)
			assert.Equal(t, tt.expected, score.Label, "polarity %.3f", score.Polarity)
		})
	}
}

func TestAnalyzer_ScoreRange(t *testing.T) {
	analyzer := NewAnalyzer()

	texts := []string{
		"extremely bullish rally soars to record best quarter",
		"extremely bad crash plunges worst fraud",
		"stock moves sideways",
		"not not not good",
	}

	for _, text := range texts {
		score := analyzer.Score(text)

		assert.GreaterOrEqual(t, score.Polarity, -1.0, text)
		assert.LessOrEqual(t, score.Polarity, 1.0, text)
		assert.GreaterOrEqual(t, score.Subjectivity, 0.0, text)
		assert.LessOrEqual(t, score.Subjectivity, 1.0, text)
	}
}

func TestAnalyzer_Negation(t *testing.T) {
	analyzer := NewAnalyzer()

	plain := analyzer.Score("results were good")
	negated := analyzer.Score("results were not good")

	assert.InDelta(t, 0.7, plain.Polarity, 1e-9)
	assert.InDelta(t, -0.35, negated.Polarity, 1e-9)
	assert.InDelta(t, plain.Subjectivity, negated.Subjectivity, 1e-9)
}

func TestAnalyzer_Punctuation(t *testing.T) {
	analyzer := NewAnalyzer()

	score := analyzer.Score(`"Great!" says CEO; shares (jump).`)
	assert.Equal(t, models.LabelPositive, score.Label)
	assert.InDelta(t, 0.65, score.Polarity, 1e-9)
}
