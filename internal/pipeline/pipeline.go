// Package pipeline runs the sentiment/return correlation analysis end to end:
// aggregate sentiment, compute returns, align, correlate per stock and,
// optionally, compute technical indicators.
package pipeline

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/selivandex/sentiment-lab/internal/alignment"
	"github.com/selivandex/sentiment-lab/internal/correlation"
	"github.com/selivandex/sentiment-lab/internal/indicators"
	"github.com/selivandex/sentiment-lab/internal/returns"
	"github.com/selivandex/sentiment-lab/internal/sentiment"
	"github.com/selivandex/sentiment-lab/pkg/logger"
	"github.com/selivandex/sentiment-lab/pkg/models"
	"github.com/selivandex/sentiment-lab/pkg/worker"
)

// Stages a stock can fail in
const (
	StageReturns    = "returns"
	StageCorrelate  = "correlate"
	StageIndicators = "indicators"
)

// Options configure a pipeline
type Options struct {
	MinSamples        int
	Workers           int
	FailFast          bool
	IndicatorsEnabled bool
	// Stocks limits the run to these symbols; empty means all
	Stocks []string
	// Location is the offset news timestamps are published in
	Location *time.Location
}

// Report is the outcome of one run
type Report struct {
	RunID      uuid.UUID
	Results    []models.CorrelationResult
	Failures   []models.StockFailure
	Sentiment  []models.DailySentiment
	Returns    []models.DailyReturn
	Aligned    []models.AlignedPair
	Indicators []models.IndicatorRow
}

// Pipeline wires the analysis stages together
type Pipeline struct {
	aggregator *sentiment.Aggregator
	returns    *returns.Calculator
	engine     *correlation.Engine
	indicators *indicators.Calculator
	pool       *worker.Pool
	opts       Options
}

// New creates pipeline scoring headlines with scorer
func New(scorer sentiment.Scorer, opts Options) *Pipeline {
	return &Pipeline{
		aggregator: sentiment.NewAggregator(scorer, opts.Location),
		returns:    returns.NewCalculator(),
		engine:     correlation.NewEngine(opts.MinSamples),
		indicators: indicators.NewCalculator(),
		pool:       worker.NewPool("correlate", opts.Workers),
		opts:       opts,
	}
}

// Run analyses news against price bars. Under the default policy a stock that
// fails a stage is recorded in Report.Failures and the run continues; with
// FailFast the first stock error is returned unchanged.
func (p *Pipeline) Run(ctx context.Context, news []models.NewsRecord, bars []models.PriceBar) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	report := &Report{RunID: uuid.New()}

	news, bars = p.filter(news, bars)

	report.Sentiment = p.aggregator.Aggregate(news)

	priceStocks, barsByStock, err := p.computeReturns(report, bars)
	if err != nil {
		return nil, err
	}

	report.Aligned, err = alignment.Align(report.Sentiment, report.Returns)
	if err != nil {
		return nil, err
	}

	if err := p.correlate(ctx, report, priceStocks); err != nil {
		return nil, err
	}

	if p.opts.IndicatorsEnabled {
		if err := p.computeIndicators(ctx, report, priceStocks, barsByStock); err != nil {
			return nil, err
		}
	}

	sortFailures(report.Failures)

	logger.Info("pipeline run completed",
		zap.String("run_id", report.RunID.String()),
		zap.Int("articles", len(news)),
		zap.Int("sentiment_days", len(report.Sentiment)),
		zap.Int("aligned_days", len(report.Aligned)),
		zap.Int("results", len(report.Results)),
		zap.Int("failures", len(report.Failures)),
		zap.Int("workers", p.pool.Limit()),
		zap.Duration("duration", time.Since(start)),
	)

	return report, nil
}

func (p *Pipeline) filter(news []models.NewsRecord, bars []models.PriceBar) ([]models.NewsRecord, []models.PriceBar) {
	if len(p.opts.Stocks) == 0 {
		return news, bars
	}

	allowed := make(map[string]bool, len(p.opts.Stocks))
	for _, s := range p.opts.Stocks {
		allowed[s] = true
	}

	var keptNews []models.NewsRecord
	for _, n := range news {
		if allowed[n.Stock] {
			keptNews = append(keptNews, n)
		}
	}
	var keptBars []models.PriceBar
	for _, b := range bars {
		if allowed[b.Stock] {
			keptBars = append(keptBars, b)
		}
	}

	return keptNews, keptBars
}

// computeReturns fills report.Returns and returns the stocks whose prices passed validation
func (p *Pipeline) computeReturns(report *Report, bars []models.PriceBar) ([]string, map[string][]models.PriceBar, error) {
	order, byStock := returns.GroupByStock(bars)

	var ok []string
	for _, stock := range order {
		series, err := p.returns.CalculateSeries(byStock[stock])
		if err != nil {
			if err := p.fail(report, stock, StageReturns, err); err != nil {
				return nil, nil, err
			}
			delete(byStock, stock)
			continue
		}
		report.Returns = append(report.Returns, series...)
		ok = append(ok, stock)
	}

	sort.Slice(report.Returns, func(i, j int) bool {
		return report.Returns[i].Key().Less(report.Returns[j].Key())
	})
	sort.Strings(ok)

	return ok, byStock, nil
}

// correlate runs the engine for every priced stock on the worker pool.
// Under FailFast the error of the first failing stock in sorted order is returned.
func (p *Pipeline) correlate(ctx context.Context, report *Report, stocks []string) error {
	_, pairsByStock := alignment.SplitByStock(report.Aligned)

	results := make([]*models.CorrelationResult, len(stocks))
	errs := make([]error, len(stocks))

	err := p.pool.Run(ctx, len(stocks), func(_ context.Context, i int) error {
		stock := stocks[i]
		pairs := pairsByStock[stock]

		if len(pairs) == 0 {
			errs[i] = &models.InsufficientDataError{Stock: stock, Found: 0, Required: p.engine.MinSamples()}
		} else {
			results[i], errs[i] = p.engine.Correlate(pairs)
		}

		if errs[i] != nil && p.opts.FailFast {
			return errs[i]
		}
		return nil
	})
	if err != nil && ctx.Err() != nil {
		return err
	}

	// Jobs are dispatched in stock order, so the first failing stock has always run.
	if p.opts.FailFast {
		for i, stock := range stocks {
			if errs[i] != nil {
				return p.fail(report, stock, StageCorrelate, errs[i])
			}
		}
	}
	if err != nil {
		return err
	}

	for i, stock := range stocks {
		if errs[i] != nil {
			// only reached without FailFast
			_ = p.fail(report, stock, StageCorrelate, errs[i])
			continue
		}

		res := results[i]
		report.Results = append(report.Results, *res)

		logger.Info("stock correlated",
			zap.String("stock", stock),
			zap.Int("samples", res.SampleSize),
			zap.Float64("pearson_r", res.PearsonR),
			zap.Float64("pearson_p", res.PearsonP),
			zap.Float64("spearman_r", res.SpearmanR),
		)
	}

	return nil
}

// computeIndicators adds indicator rows; stocks with a short history are only logged
func (p *Pipeline) computeIndicators(ctx context.Context, report *Report, stocks []string, byStock map[string][]models.PriceBar) error {
	var mu sync.Mutex
	rows := make([][]models.IndicatorRow, len(stocks))

	err := p.pool.Run(ctx, len(stocks), func(_ context.Context, i int) error {
		stock := stocks[i]
		stockRows, err := p.indicators.Calculate(byStock[stock])
		if err == nil {
			rows[i] = stockRows
			return nil
		}

		if errors.Is(err, models.ErrInsufficientData) {
			logger.Warn("skipping indicators",
				zap.String("stock", stock),
				zap.Error(err),
			)
			return nil
		}

		mu.Lock()
		defer mu.Unlock()
		return p.fail(report, stock, StageIndicators, err)
	})
	if err != nil {
		return err
	}

	for _, r := range rows {
		report.Indicators = append(report.Indicators, r...)
	}
	return nil
}

// fail records a stock failure, or returns err under FailFast
func (p *Pipeline) fail(report *Report, stock, stage string, err error) error {
	if p.opts.FailFast {
		logger.Error("stock failed, aborting run",
			zap.String("stock", stock),
			zap.String("stage", stage),
			zap.Error(err),
		)
		return err
	}

	logger.Warn("stock skipped",
		zap.String("stock", stock),
		zap.String("stage", stage),
		zap.Error(err),
	)
	report.Failures = append(report.Failures, models.StockFailure{Stock: stock, Stage: stage, Err: err})
	return nil
}

func sortFailures(failures []models.StockFailure) {
	sort.SliceStable(failures, func(i, j int) bool {
		return failures[i].Stock < failures[j].Stock
	})
}
