package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/sentiment-lab/internal/adapters/clickhouse"
	"github.com/selivandex/sentiment-lab/internal/adapters/config"
	"github.com/selivandex/sentiment-lab/internal/adapters/correlation"
	"github.com/selivandex/sentiment-lab/internal/adapters/database"
	"github.com/selivandex/sentiment-lab/internal/adapters/news"
	"github.com/selivandex/sentiment-lab/internal/adapters/price"
	"github.com/selivandex/sentiment-lab/internal/pipeline"
	"github.com/selivandex/sentiment-lab/internal/reports"
	"github.com/selivandex/sentiment-lab/internal/sentiment"
	"github.com/selivandex/sentiment-lab/pkg/logger"
	"github.com/selivandex/sentiment-lab/pkg/models"
)

type flags struct {
	newsPath  string
	pricePath string
	outPath   string
	seedNews  bool
}

func main() {
	var f flags
	flag.StringVar(&f.newsPath, "news", "", "news CSV/JSON file (overrides INPUT_NEWS_PATH)")
	flag.StringVar(&f.pricePath, "prices", "", "price CSV file or directory (overrides INPUT_PRICE_PATH)")
	flag.StringVar(&f.outPath, "out", "", "correlation results CSV (overrides OUTPUT_RESULTS_PATH)")
	flag.BoolVar(&f.seedNews, "seed-news", false, "store file news in PostgreSQL before the run")
	flag.Parse()

	// Setup signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, f); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, f flags) error {
	cfg, err := initConfig(f)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("sentiment correlation run starting",
		zap.String("news_source", cfg.Input.NewsSource),
		zap.String("price_source", cfg.Input.PriceSource),
		zap.Strings("stocks", cfg.Input.Stocks),
		zap.Int("workers", cfg.Pipeline.Workers),
		zap.Bool("fail_fast", cfg.Pipeline.FailFast),
	)

	var db *database.DB
	if cfg.Database.Enabled {
		db, err = initDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	var chDB *database.DB
	if cfg.ClickHouse.Enabled {
		chDB, err = initClickHouse(ctx, cfg)
		if err != nil {
			return err
		}
		defer chDB.Close()
	}

	newsSource, err := newsSourceFor(cfg, db)
	if err != nil {
		return err
	}
	priceSource, err := priceSourceFor(cfg, chDB)
	if err != nil {
		return err
	}

	records, err := newsSource.LoadNews(ctx)
	if err != nil {
		return fmt.Errorf("failed to load news: %w", err)
	}
	if f.seedNews {
		if err := seedNews(ctx, cfg, db, records); err != nil {
			return err
		}
	}

	bars, err := priceSource.LoadPriceBars(ctx)
	if err != nil {
		return fmt.Errorf("failed to load prices: %w", err)
	}

	p := pipeline.New(sentiment.NewAnalyzer(), pipeline.Options{
		MinSamples:        cfg.Pipeline.MinSamples,
		Workers:           cfg.Pipeline.Workers,
		FailFast:          cfg.Pipeline.FailFast,
		IndicatorsEnabled: cfg.Pipeline.IndicatorsEnabled,
		Stocks:            cfg.Input.Stocks,
		Location:          cfg.Pipeline.SourceLocation(),
	})

	report, err := p.Run(ctx, records, bars)
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	if err := writeOutputs(cfg, report, len(records)); err != nil {
		return err
	}

	return persist(ctx, cfg, db, chDB, report)
}

func initConfig(f flags) (*config.Config, error) {
	cfg, err := config.Load(func(c *config.Config) {
		if f.newsPath != "" {
			c.Input.NewsPath = f.newsPath
		}
		if f.pricePath != "" {
			c.Input.PricePath = f.pricePath
		}
		if f.outPath != "" {
			c.Output.ResultsPath = f.outPath
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, nil
}

// initDatabase connects to PostgreSQL and applies migrations
func initDatabase(cfg *config.Config) (*database.DB, error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := database.RunMigrations(db.Conn(), cfg.Database.MigrationsPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	version, _, err := database.GetMigrationVersion(db.Conn(), cfg.Database.MigrationsPath)
	if err == nil {
		logger.Debug("database schema ready", zap.Uint("version", version))
	}

	return db, nil
}

// initClickHouse connects to ClickHouse and makes sure the output table exists
func initClickHouse(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	ch, err := database.NewClickHouse(&cfg.ClickHouse)
	if err != nil {
		return nil, err
	}

	if err := ch.Health(ctx); err != nil {
		ch.Close()
		return nil, fmt.Errorf("ClickHouse ping failed: %w", err)
	}

	if cfg.ClickHouse.SaveAligned {
		if err := clickhouse.NewRepository(ch.DB()).EnsureSchema(ctx); err != nil {
			ch.Close()
			return nil, err
		}
	}

	return ch, nil
}

func newsSourceFor(cfg *config.Config, db *database.DB) (news.Source, error) {
	switch cfg.Input.NewsSource {
	case config.SourcePostgres:
		return news.NewRepository(db.DB(), cfg.Input.Stocks), nil
	case config.SourceFile:
		return news.NewFileLoader(cfg.Input.NewsPath, news.Options{
			Location:      cfg.Pipeline.SourceLocation(),
			DropMalformed: cfg.Input.DropMalformed,
		}), nil
	default:
		return nil, fmt.Errorf("unknown news source %q", cfg.Input.NewsSource)
	}
}

func priceSourceFor(cfg *config.Config, chDB *database.DB) (price.Source, error) {
	switch cfg.Input.PriceSource {
	case config.SourceClickHouse:
		repo := clickhouse.NewRepository(chDB.DB())
		return price.SourceFunc(func(ctx context.Context) ([]models.PriceBar, error) {
			return repo.LoadPriceBars(ctx, cfg.Input.Stocks)
		}), nil
	case config.SourceFile:
		return price.NewFileLoader(cfg.Input.PricePath, cfg.Input.DropMalformed), nil
	default:
		return nil, fmt.Errorf("unknown price source %q", cfg.Input.PriceSource)
	}
}

func seedNews(ctx context.Context, cfg *config.Config, db *database.DB, records []models.NewsRecord) error {
	if db == nil || cfg.Input.NewsSource != config.SourceFile {
		return fmt.Errorf("-seed-news needs a file news source and DATABASE_ENABLED")
	}

	saved, err := news.NewRepository(db.DB(), nil).SaveNews(ctx, records)
	if err != nil {
		return fmt.Errorf("failed to seed news: %w", err)
	}

	logger.Info("news seeded", zap.Int("records", len(records)), zap.Int("new", saved))
	return nil
}

func writeOutputs(cfg *config.Config, report *pipeline.Report, articles int) error {
	if err := reports.SaveResults(cfg.Output.ResultsPath, report.Results); err != nil {
		return err
	}

	if cfg.Output.IndicatorsPath != "" && len(report.Indicators) > 0 {
		if err := reports.SaveIndicators(cfg.Output.IndicatorsPath, report.Indicators); err != nil {
			return err
		}
	}

	if !cfg.Output.Summary {
		return nil
	}

	renderer, err := reports.NewRenderer()
	if err != nil {
		return err
	}
	summary := reports.NewSummary(report.RunID.String(), articles, len(report.Aligned), report.Results, report.Failures)
	summary.AddTrends(report.Indicators)

	text, err := renderer.RenderSummary(summary)
	if err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}

	fmt.Print(text)
	return nil
}

// persist stores results in PostgreSQL and aligned pairs in ClickHouse when enabled
func persist(ctx context.Context, cfg *config.Config, db, chDB *database.DB, report *pipeline.Report) error {
	if db != nil {
		stored, err := correlation.NewRepository(db.DB()).SaveResults(ctx, report.RunID, report.Results)
		if err != nil {
			return fmt.Errorf("failed to persist results: %w", err)
		}
		logger.Info("results persisted", zap.Int("rows", len(stored)))
	}

	if chDB != nil && cfg.ClickHouse.SaveAligned {
		writer := clickhouse.NewAlignedPairWriter(clickhouse.NewRepository(chDB.DB()), report.RunID, 1000, 5*time.Second)
		writer.Add(report.Aligned...)
		if err := writer.Close(); err != nil {
			return fmt.Errorf("failed to persist aligned pairs: %w", err)
		}
		logger.Info("aligned pairs persisted", zap.Int("rows", len(report.Aligned)))
	}

	return nil
}
