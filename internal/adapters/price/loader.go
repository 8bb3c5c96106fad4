package price

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/selivandex/sentiment-lab/pkg/logger"
	"github.com/selivandex/sentiment-lab/pkg/models"
)

// Source provides daily price bars
type Source interface {
	LoadPriceBars(ctx context.Context) ([]models.PriceBar, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context) ([]models.PriceBar, error)

// LoadPriceBars calls f(ctx)
func (f SourceFunc) LoadPriceBars(ctx context.Context) ([]models.PriceBar, error) {
	return f(ctx)
}

var dateLayouts = []string{
	models.DateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

var ohlcvColumns = []string{"open", "high", "low", "close", "volume"}

// FileLoader reads bars from a CSV file or from every CSV file of a directory
type FileLoader struct {
	path          string
	dropMalformed bool
}

// NewFileLoader creates loader for a file or directory path
func NewFileLoader(path string, dropMalformed bool) *FileLoader {
	return &FileLoader{path: path, dropMalformed: dropMalformed}
}

// LoadPriceBars reads all bars sorted by stock and date
func (l *FileLoader) LoadPriceBars(ctx context.Context) ([]models.PriceBar, error) {
	info, err := os.Stat(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat price path: %w", err)
	}

	files := []string{l.path}
	if info.IsDir() {
		files, err = filepath.Glob(filepath.Join(l.path, "*.csv"))
		if err != nil {
			return nil, fmt.Errorf("failed to list price files: %w", err)
		}
		sort.Strings(files)
	}

	var bars []models.PriceBar
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fileBars, err := l.loadFile(file)
		if err != nil {
			return nil, err
		}
		bars = append(bars, fileBars...)
	}

	SortBars(bars)

	logger.Info("price bars loaded",
		zap.String("path", l.path),
		zap.Int("files", len(files)),
		zap.Int("bars", len(bars)),
	)

	return bars, nil
}

func (l *FileLoader) loadFile(path string) ([]models.PriceBar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price file: %w", err)
	}
	defer f.Close()

	bars, err := ReadCSV(f, StockFromFileName(path), l.dropMalformed)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return bars, nil
}

// StockFromFileName infers the stock symbol from names like AAPL_historical_data.csv
func StockFromFileName(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if idx := strings.IndexAny(name, "_-. "); idx > 0 {
		name = name[:idx]
	}
	return strings.ToUpper(name)
}

// ReadCSV parses a price CSV with a header row. A stock, symbol or ticker
// column wins over defaultStock. Bars are returned in file order.
func ReadCSV(r io.Reader, defaultStock string, dropMalformed bool) ([]models.PriceBar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int)
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		switch key {
		case "symbol", "ticker":
			key = "stock"
		}
		if _, seen := columns[key]; !seen {
			columns[key] = i
		}
	}
	for _, required := range append([]string{"date"}, ohlcvColumns...) {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}
	stockIdx, hasStock := columns["stock"]
	if !hasStock && defaultStock == "" {
		return nil, fmt.Errorf("no stock column and no stock inferred from file name")
	}

	var bars []models.PriceBar
	malformed := 0
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		stock := defaultStock
		if hasStock && stockIdx < len(row) && strings.TrimSpace(row[stockIdx]) != "" {
			stock = strings.ToUpper(strings.TrimSpace(row[stockIdx]))
		}

		bar, err := parseRow(row, columns, stock)
		if err != nil {
			if dropMalformed {
				malformed++
				continue
			}
			return nil, &models.DataIntegrityError{Stock: stock, Reason: fmt.Sprintf("line %d: %v", line, err)}
		}
		bars = append(bars, bar)
	}

	if malformed > 0 {
		logger.Warn("dropped malformed price rows",
			zap.String("stock", defaultStock),
			zap.Int("rows", malformed),
		)
	}

	return bars, nil
}

func parseRow(row []string, columns map[string]int, stock string) (models.PriceBar, error) {
	cell := func(name string) string {
		idx := columns[name]
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	date, err := parseDate(cell("date"))
	if err != nil {
		return models.PriceBar{}, err
	}

	values := make([]decimal.Decimal, len(ohlcvColumns))
	for i, name := range ohlcvColumns {
		raw := cell(name)
		if raw == "" {
			return models.PriceBar{}, fmt.Errorf("missing %s", name)
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return models.PriceBar{}, fmt.Errorf("invalid %s %q", name, raw)
		}
		values[i] = v
	}

	return models.PriceBar{
		TradingDate: date,
		Stock:       stock,
		Open:        values[0],
		High:        values[1],
		Low:         values[2],
		Close:       values[3],
		Volume:      values[4],
	}, nil
}

// parseDate returns the calendar date of value at UTC midnight
func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return models.TruncateDay(t, nil), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}

// SortBars orders bars by stock, then date
func SortBars(bars []models.PriceBar) {
	sort.SliceStable(bars, func(i, j int) bool {
		return models.DayKey{Stock: bars[i].Stock, Date: bars[i].TradingDate}.Less(
			models.DayKey{Stock: bars[j].Stock, Date: bars[j].TradingDate})
	})
}
