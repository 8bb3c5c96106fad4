package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/selivandex/sentiment-lab/pkg/logger"
	"github.com/selivandex/sentiment-lab/pkg/models"
)

// ResultsHeader is the column order of the correlation table
var ResultsHeader = []string{
	"stock", "pearson_r", "pearson_p", "spearman_r", "spearman_p", "sample_size", "slope", "intercept",
}

// IndicatorsHeader is the column order of the indicator table
var IndicatorsHeader = []string{
	"date", "stock", "close", "sma_20", "sma_50", "ema_12", "ema_26", "rsi",
	"macd", "macd_signal", "macd_hist", "bb_upper", "bb_middle", "bb_lower",
	"atr", "stoch_k", "stoch_d", "obv",
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteResultsCSV writes one row per correlation result
func WriteResultsCSV(w io.Writer, results []models.CorrelationResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ResultsHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range results {
		record := []string{
			r.Stock,
			formatFloat(r.PearsonR),
			formatFloat(r.PearsonP),
			formatFloat(r.SpearmanR),
			formatFloat(r.SpearmanP),
			strconv.Itoa(r.SampleSize),
			formatFloat(r.Slope),
			formatFloat(r.Intercept),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write %s: %w", r.Stock, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteIndicatorsCSV writes one row per indicator row
func WriteIndicatorsCSV(w io.Writer, rows []models.IndicatorRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(IndicatorsHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range rows {
		record := []string{
			r.TradingDate.Format(models.DateLayout),
			r.Stock,
		}
		for _, v := range []float64{
			r.Close, r.SMA20, r.SMA50, r.EMA12, r.EMA26, r.RSI,
			r.MACD, r.MACDSignal, r.MACDHist, r.BBUpper, r.BBMiddle, r.BBLower,
			r.ATR, r.StochK, r.StochD, r.OBV,
		} {
			record = append(record, formatFloat(v))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write %s: %w", r.Stock, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveResults writes the correlation table to path, creating parent directories
func SaveResults(path string, results []models.CorrelationResult) error {
	return writeFile(path, func(w io.Writer) error { return WriteResultsCSV(w, results) })
}

// SaveIndicators writes the indicator table to path, creating parent directories
func SaveIndicators(path string, rows []models.IndicatorRow) error {
	return writeFile(path, func(w io.Writer) error { return WriteIndicatorsCSV(w, rows) })
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	logger.Info("report written", zap.String("path", path))
	return nil
}
