package sentiment

import (
	"strings"

	"github.com/selivandex/sentiment-lab/pkg/models"
)

// Scorer turns a headline into a sentiment score
type Scorer interface {
	Score(text string) models.SentimentScore
}

// lexeme is a lexicon entry
type lexeme struct {
	polarity     float64
	subjectivity float64
}

// Analyzer performs lexicon-based sentiment analysis of financial headlines.
// Polarity and subjectivity are averaged over the words found in the lexicon;
// a negator directly before a word flips and dampens its polarity.
type Analyzer struct {
	lexicon   map[string]lexeme
	negators  map[string]bool
	modifiers map[string]float64
}

// NewAnalyzer creates new sentiment analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		lexicon:   buildLexicon(),
		negators:  buildNegators(),
		modifiers: buildModifiers(),
	}
}

// Score analyzes text and returns polarity (-1..1), subjectivity (0..1) and label
func (a *Analyzer) Score(text string) models.SentimentScore {
	neutral := models.SentimentScore{Label: models.LabelNeutral}

	words := tokenize(text)
	if len(words) == 0 {
		return neutral
	}

	var polaritySum, subjectivitySum float64
	matchCount := 0

	for i, word := range words {
		entry, ok := a.lexicon[word]
		if !ok {
			continue
		}

		polarity := entry.polarity
		subjectivity := entry.subjectivity

		if i > 0 {
			if factor, ok := a.modifiers[words[i-1]]; ok {
				polarity *= factor
				subjectivity *= factor
			}
		}
		if a.negatedAt(words, i) {
			polarity *= -0.5
		}

		polaritySum += polarity
		subjectivitySum += subjectivity
		matchCount++
	}

	if matchCount == 0 {
		return neutral
	}

	polarity := clamp(polaritySum/float64(matchCount), -1.0, 1.0)
	subjectivity := clamp(subjectivitySum/float64(matchCount), 0.0, 1.0)

	return models.SentimentScore{
		Polarity:     polarity,
		Subjectivity: subjectivity,
		Label:        models.LabelFor(polarity),
	}
}

// negatedAt reports whether one of the two words before i is a negator
func (a *Analyzer) negatedAt(words []string, i int) bool {
	for j := i - 1; j >= 0 && j >= i-2; j-- {
		if a.negators[words[j]] {
			return true
		}
	}
	return false
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		// Clean punctuation
		w := strings.Trim(f, ".,!?;:\"'()[]")
		w = strings.TrimSuffix(w, "'s")
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// buildLexicon returns equity-news vocabulary with polarity and subjectivity
func buildLexicon() map[string]lexeme {
	return map[string]lexeme{
		// Positive
		"beat":         {0.6, 0.4},
		"beats":        {0.6, 0.4},
		"bullish":      {0.8, 0.9},
		"buy":          {0.4, 0.5},
		"gain":         {0.5, 0.3},
		"gains":        {0.5, 0.3},
		"growth":       {0.4, 0.3},
		"higher":       {0.3, 0.3},
		"jump":         {0.5, 0.4},
		"jumps":        {0.5, 0.4},
		"outperform":   {0.6, 0.6},
		"positive":     {0.5, 0.6},
		"profit":       {0.4, 0.2},
		"rally":        {0.6, 0.5},
		"rallies":      {0.6, 0.5},
		"record":       {0.4, 0.3},
		"rise":         {0.4, 0.2},
		"rises":        {0.4, 0.2},
		"soar":         {0.8, 0.6},
		"soars":        {0.8, 0.6},
		"strong":       {0.4, 0.7},
		"surge":        {0.7, 0.5},
		"surges":       {0.7, 0.5},
		"top":          {0.5, 0.5},
		"upgrade":      {0.6, 0.4},
		"upgrades":     {0.6, 0.4},
		"upbeat":       {0.6, 0.8},
		"optimistic":   {0.6, 0.9},
		"good":         {0.7, 0.6},
		"great":        {0.8, 0.75},
		"best":         {1.0, 0.3},
		"breakthrough": {0.6, 0.5},

		// Negative
		"bearish":      {-0.8, 0.9},
		"crash":        {-0.9, 0.6},
		"cut":          {-0.4, 0.3},
		"cuts":         {-0.4, 0.3},
		"decline":      {-0.4, 0.3},
		"declines":     {-0.4, 0.3},
		"downgrade":    {-0.6, 0.4},
		"downgrades":   {-0.6, 0.4},
		"drop":         {-0.4, 0.3},
		"drops":        {-0.4, 0.3},
		"fall":         {-0.4, 0.3},
		"falls":        {-0.4, 0.3},
		"fear":         {-0.6, 0.8},
		"fraud":        {-0.9, 0.5},
		"lawsuit":      {-0.5, 0.3},
		"loss":         {-0.5, 0.3},
		"losses":       {-0.5, 0.3},
		"lower":        {-0.3, 0.3},
		"miss":         {-0.6, 0.4},
		"misses":       {-0.6, 0.4},
		"negative":     {-0.5, 0.6},
		"plunge":       {-0.8, 0.6},
		"plunges":      {-0.8, 0.6},
		"recall":       {-0.4, 0.2},
		"sell":         {-0.4, 0.5},
		"selloff":      {-0.7, 0.5},
		"slump":        {-0.6, 0.5},
		"slumps":       {-0.6, 0.5},
		"tumble":       {-0.7, 0.5},
		"tumbles":      {-0.7, 0.5},
		"underperform": {-0.6, 0.6},
		"weak":         {-0.4, 0.7},
		"worst":        {-1.0, 0.3},
		"bad":          {-0.7, 0.67},
		"probe":        {-0.4, 0.3},
	}
}

func buildNegators() map[string]bool {
	return map[string]bool{
		"not":   true,
		"no":    true,
		"never": true,
		"isn't": true,
		"don't": true,
		"won't": true,
		"fails": true,
	}
}

// buildModifiers returns intensifiers applied to the following word
func buildModifiers() map[string]float64 {
	return map[string]float64{
		"very":      1.3,
		"extremely": 1.5,
		"sharply":   1.3,
		"slightly":  0.5,
		"somewhat":  0.7,
	}
}
