// Package analyzer wraps the external document-understanding service that
// turns uploaded rate sheets into raw text, tables and (when a trained model
// recognizes the layout) named fields with confidences.
package analyzer

import (
	"context"
)

// Field is a single named value read by a trained document model.
type Field struct {
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
}

// AnalyzedDocument is one recognized document instance within a result.
type AnalyzedDocument struct {
	DocType string           `json:"docType"`
	Fields  map[string]Field `json:"fields"`
}

// Table is a detected table, kept as row-major cell text.
type Table struct {
	RowCount    int      `json:"rowCount"`
	ColumnCount int      `json:"columnCount"`
	Cells       []string `json:"cells"`
}

// Result is the analyzer's contract: raw page content plus any structured
// documents. The same shape is returned by the real service and the mock.
type Result struct {
	Content   string             `json:"content"`
	Tables    []Table            `json:"tables,omitempty"`
	Documents []AnalyzedDocument `json:"documents,omitempty"`
}

// Analyzer extracts content from a binary document of the declared media type.
type Analyzer interface {
	Analyze(ctx context.Context, content []byte, contentType string) (*Result, error)
}

// Config selects and configures the analyzer implementation.
type Config struct {
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	Key      string `yaml:"key" mapstructure:"key"`
	ModelID  string `yaml:"model_id" mapstructure:"model_id"`
}

// New creates an Analyzer. When no endpoint or key is configured it returns
// the canned mock so the rest of the pipeline keeps working in development.
func New(cfg Config) Analyzer {
	if cfg.Endpoint == "" || cfg.Key == "" {
		return NewMock()
	}
	return NewRESTAnalyzer(cfg)
}
