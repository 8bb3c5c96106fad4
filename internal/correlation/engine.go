package correlation

import (
	"math"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/selivandex/sentiment-lab/pkg/logger"
	"github.com/selivandex/sentiment-lab/pkg/models"
)

// DefaultMinSamples is the smallest sample for which correlation is defined
const DefaultMinSamples = 2

// Series names reported by UndefinedCorrelationError
const (
	SeriesPolarity = "mean_polarity"
	SeriesReturn   = "pct_return"
)

// Engine computes Pearson and Spearman correlation between daily sentiment and returns
type Engine struct {
	minSamples int
}

// NewEngine creates engine; thresholds below 2 are raised to 2
func NewEngine(minSamples int) *Engine {
	if minSamples < DefaultMinSamples {
		minSamples = DefaultMinSamples
	}
	return &Engine{minSamples: minSamples}
}

// MinSamples returns the effective sample size threshold
func (e *Engine) MinSamples() int {
	return e.minSamples
}

// Correlate computes the correlation report for the aligned pairs of one stock
func (e *Engine) Correlate(pairs []models.AlignedPair) (*models.CorrelationResult, error) {
	stock := ""
	if len(pairs) > 0 {
		stock = pairs[0].Stock
	}

	polarity := make([]float64, len(pairs))
	returns := make([]float64, len(pairs))
	for i, p := range pairs {
		if p.Stock != stock {
			return nil, &models.DataIntegrityError{
				Stock:  stock,
				Date:   p.TradingDate,
				Reason: "aligned pairs mix stocks " + stock + " and " + p.Stock,
			}
		}
		if !isFinite(p.MeanPolarity) || !isFinite(p.PctReturn) {
			return nil, &models.DataIntegrityError{Stock: stock, Date: p.TradingDate, Reason: "non-finite observation"}
		}
		polarity[i] = p.MeanPolarity
		returns[i] = p.PctReturn
	}

	if len(pairs) < e.minSamples {
		return nil, &models.InsufficientDataError{Stock: stock, Found: len(pairs), Required: e.minSamples}
	}
	if isConstant(polarity) {
		return nil, &models.UndefinedCorrelationError{Stock: stock, Series: SeriesPolarity}
	}
	if isConstant(returns) {
		return nil, &models.UndefinedCorrelationError{Stock: stock, Series: SeriesReturn}
	}

	n := len(pairs)
	pearson := clampUnit(stat.Correlation(polarity, returns, nil))
	spearman := clampUnit(stat.Correlation(Rank(polarity), Rank(returns), nil))
	intercept, slope := stat.LinearRegression(polarity, returns, nil, false)

	result := &models.CorrelationResult{
		Stock:      stock,
		PearsonR:   pearson,
		PearsonP:   TwoTailedP(pearson, n),
		SpearmanR:  spearman,
		SpearmanP:  TwoTailedP(spearman, n),
		SampleSize: n,
		Slope:      slope,
		Intercept:  intercept,
	}

	logger.Debug("correlation computed",
		zap.String("stock", stock),
		zap.Int("samples", n),
		zap.Float64("pearson_r", result.PearsonR),
		zap.Float64("spearman_r", result.SpearmanR),
	)

	return result, nil
}

// TwoTailedP returns the two-tailed p-value of a correlation coefficient under the
// null hypothesis of no correlation, using Student's t with n-2 degrees of freedom.
func TwoTailedP(r float64, n int) float64 {
	if n <= 2 {
		return 1
	}
	if math.Abs(r) >= 1 {
		return 0
	}

	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}

	return math.Min(1, 2*dist.Survival(math.Abs(t)))
}

// Rank assigns 1-based ranks, giving tied values the average of their positions
func Rank(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	ranks := make([]float64, len(values))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

func isConstant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// clampUnit removes rounding overshoot beyond [-1, 1]
func clampUnit(r float64) float64 {
	return math.Max(-1, math.Min(1, r))
}
