package templates

import (
	"bytes"
	"fmt"
	"io/fs"
	"math"
	"text/template"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/selivandex/sentiment-lab/pkg/logger"
)

// Renderer interface for template rendering (for dependency injection)
type Renderer interface {
	ExecuteTemplate(name string, data any) (string, error)
	TemplateExists(name string) bool
}

// Manager holds a parsed template set
type Manager struct {
	templates *template.Template
}

// GetDefaultFuncMap returns common template helper functions
func GetDefaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"comma": func(n int) string {
			return humanize.Comma(int64(n))
		},
		"ftoa": func(v float64) string {
			return humanize.FtoaWithDigits(round(v, 4), 4)
		},
		"pct": func(v float64) string {
			return humanize.FtoaWithDigits(round(v*100, 2), 2) + "%"
		},
		// signed renders v as a trailing term, e.g. "+ 0.6" or "- 0.0083"
		"signed": func(v float64) string {
			v = round(v, 4)
			if v < 0 {
				return "- " + humanize.FtoaWithDigits(-v, 4)
			}
			return "+ " + humanize.FtoaWithDigits(v, 4)
		},
	}
}

// round rounds half away from zero; FtoaWithDigits alone truncates
func round(v float64, digits int) float64 {
	scale := math.Pow10(digits)
	return math.Round(v*scale) / scale
}

// NewManager parses every template matching patterns in fsys
func NewManager(fsys fs.FS, patterns ...string) (*Manager, error) {
	tmpl, err := template.New("root").Funcs(GetDefaultFuncMap()).ParseFS(fsys, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	logger.Debug("templates loaded",
		zap.Int("count", len(tmpl.Templates())),
		zap.Strings("patterns", patterns),
	)

	return &Manager{templates: tmpl}, nil
}

// ExecuteTemplate renders template with data
func (m *Manager) ExecuteTemplate(name string, data any) (string, error) {
	tmpl := m.templates.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("template %s not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}

// TemplateExists checks if template exists
func (m *Manager) TemplateExists(name string) bool {
	return m.templates.Lookup(name) != nil
}
