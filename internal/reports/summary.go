package reports

import (
	"embed"
	"fmt"
	"math"

	"github.com/selivandex/sentiment-lab/internal/indicators"
	"github.com/selivandex/sentiment-lab/pkg/models"
	"github.com/selivandex/sentiment-lab/pkg/templates"
)

// SignificanceLevel is the p-value below which a correlation is flagged
const SignificanceLevel = 0.05

//go:embed templates/*.tmpl
var templateFS embed.FS

// Summary is the data rendered into the text summary
type Summary struct {
	RunID       string
	Articles    int
	AlignedDays int
	Rows        []SummaryRow
	Failures    []models.StockFailure
}

// SummaryRow decorates one result with its reading
type SummaryRow struct {
	models.CorrelationResult
	Strength            string
	Direction           string
	PearsonSignificant  bool
	SpearmanSignificant bool
	// Trend and RSI come from the stock's last indicator row, if any
	Trend string
	RSI   float64
}

// Strength describes the magnitude of a correlation coefficient
func Strength(r float64) string {
	switch a := math.Abs(r); {
	case a >= 0.8:
		return "very strong"
	case a >= 0.6:
		return "strong"
	case a >= 0.4:
		return "moderate"
	case a >= 0.2:
		return "weak"
	default:
		return "very weak"
	}
}

// Direction describes the sign of a correlation coefficient
func Direction(r float64) string {
	switch {
	case r > 0:
		return "positive"
	case r < 0:
		return "negative"
	default:
		return "flat"
	}
}

// NewSummary builds summary data from a run
func NewSummary(runID string, articles, alignedDays int, results []models.CorrelationResult, failures []models.StockFailure) Summary {
	rows := make([]SummaryRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, SummaryRow{
			CorrelationResult:   r,
			Strength:            Strength(r.PearsonR),
			Direction:           Direction(r.PearsonR),
			PearsonSignificant:  r.PearsonP < SignificanceLevel,
			SpearmanSignificant: r.SpearmanP < SignificanceLevel,
		})
	}

	return Summary{
		RunID:       runID,
		Articles:    articles,
		AlignedDays: alignedDays,
		Rows:        rows,
		Failures:    failures,
	}
}

// AddTrends annotates rows with the price trend of their latest indicator row
func (s *Summary) AddTrends(rows []models.IndicatorRow) {
	latest := indicators.LatestByStock(rows)
	for i := range s.Rows {
		row, ok := latest[s.Rows[i].Stock]
		if !ok {
			continue
		}
		s.Rows[i].Trend = indicators.DetectTrend(row)
		s.Rows[i].RSI = row.RSI
	}
}

// Renderer renders text summaries
type Renderer struct {
	manager templates.Renderer
}

// NewRenderer creates renderer backed by the embedded templates
func NewRenderer() (*Renderer, error) {
	manager, err := templates.NewManager(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to load report templates: %w", err)
	}
	return &Renderer{manager: manager}, nil
}

// RenderSummary renders the text summary
func (r *Renderer) RenderSummary(s Summary) (string, error) {
	return r.manager.ExecuteTemplate("summary", s)
}
