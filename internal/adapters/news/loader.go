package news

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/selivandex/sentiment-lab/pkg/logger"
	"github.com/selivandex/sentiment-lab/pkg/models"
)

// Source provides the raw news table
type Source interface {
	LoadNews(ctx context.Context) ([]models.NewsRecord, error)
}

// Options control parsing and cleaning of news rows
type Options struct {
	// Location is applied to timestamps that carry no offset
	Location *time.Location
	// DropMalformed skips rows with unparseable dates instead of failing
	DropMalformed bool
}

// Column aliases accepted in file headers
var columnAliases = map[string]string{
	"headline":  "headline",
	"title":     "headline",
	"url":       "url",
	"link":      "url",
	"publisher": "publisher",
	"source":    "publisher",
	"date":      "date",
	"published": "date",
	"stock":     "stock",
	"symbol":    "stock",
	"ticker":    "stock",
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-0700",
	"2006-01-02 15:04:05 -0700",
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	models.DateLayout,
}

// rawNews is one unvalidated row as read from a file
type rawNews struct {
	line      int
	headline  string
	url       string
	publisher string
	date      string
	stock     string
}

// FileLoader reads news from a CSV or JSON file
type FileLoader struct {
	path string
	opts Options
}

// NewFileLoader creates loader for path; .json files are read as JSON, anything else as CSV
func NewFileLoader(path string, opts Options) *FileLoader {
	return &FileLoader{path: path, opts: opts}
}

// LoadNews reads and cleans the file
func (l *FileLoader) LoadNews(ctx context.Context) ([]models.NewsRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open news file: %w", err)
	}
	defer f.Close()

	var records []models.NewsRecord
	if strings.EqualFold(filepath.Ext(l.path), ".json") {
		records, err = ReadJSON(f, l.opts)
	} else {
		records, err = ReadCSV(f, l.opts)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", l.path, err)
	}

	logger.Info("news loaded",
		zap.String("path", l.path),
		zap.Int("records", len(records)),
	)

	return records, nil
}

// ReadCSV parses a news CSV with a header row and cleans it
func ReadCSV(r io.Reader, opts Options) ([]models.NewsRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int)
	for i, name := range header {
		if canonical, ok := columnAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
			if _, seen := columns[canonical]; !seen {
				columns[canonical] = i
			}
		}
	}
	for _, required := range []string{"headline", "date", "stock"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	field := func(row []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	var raw []rawNews
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		raw = append(raw, rawNews{
			line:      line,
			headline:  field(row, "headline"),
			url:       field(row, "url"),
			publisher: field(row, "publisher"),
			date:      field(row, "date"),
			stock:     field(row, "stock"),
		})
	}

	return clean(raw, opts)
}

// ReadJSON parses a JSON array of news objects and cleans it
func ReadJSON(r io.Reader, opts Options) ([]models.NewsRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read json: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid json")
	}

	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("expected a json array of news objects")
	}

	var raw []rawNews
	idx := 0
	root.ForEach(func(_, item gjson.Result) bool {
		idx++
		row := rawNews{line: idx}
		item.ForEach(func(key, value gjson.Result) bool {
			switch columnAliases[strings.ToLower(key.String())] {
			case "headline":
				row.headline = value.String()
			case "url":
				row.url = value.String()
			case "publisher":
				row.publisher = value.String()
			case "date":
				row.date = value.String()
			case "stock":
				row.stock = value.String()
			}
			return true
		})
		raw = append(raw, row)
		return true
	})

	return clean(raw, opts)
}

// ParseTimestamp parses the date formats seen in news dumps.
// Timestamps without an offset are read in loc (UTC when nil).
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unparseable timestamp %q", value)
}

type dedupKey struct {
	headline string
	date     int64
	stock    string
}

// clean drops blank headlines and duplicates, and parses dates
func clean(raw []rawNews, opts Options) ([]models.NewsRecord, error) {
	records := make([]models.NewsRecord, 0, len(raw))
	seen := make(map[dedupKey]struct{}, len(raw))
	var blank, duplicates, malformed int

	for _, row := range raw {
		headline := strings.TrimSpace(row.headline)
		if headline == "" {
			blank++
			continue
		}

		stock := strings.ToUpper(strings.TrimSpace(row.stock))
		date, err := ParseTimestamp(row.date, opts.Location)
		if err != nil || stock == "" {
			if opts.DropMalformed {
				malformed++
				continue
			}
			reason := fmt.Sprintf("row %d: missing stock", row.line)
			if err != nil {
				reason = fmt.Sprintf("row %d: %v", row.line, err)
			}
			return nil, &models.DataIntegrityError{Stock: stock, Reason: reason}
		}

		key := dedupKey{headline: headline, date: date.UnixNano(), stock: stock}
		if _, dup := seen[key]; dup {
			duplicates++
			continue
		}
		seen[key] = struct{}{}

		records = append(records, models.NewsRecord{
			Date:      date,
			Headline:  headline,
			URL:       strings.TrimSpace(row.url),
			Publisher: strings.TrimSpace(row.publisher),
			Stock:     stock,
		})
	}

	logger.Debug("news cleaned",
		zap.Int("rows", len(raw)),
		zap.Int("kept", len(records)),
		zap.Int("blank_headlines", blank),
		zap.Int("duplicates", duplicates),
		zap.Int("malformed", malformed),
	)

	return records, nil
}
