package output

import (
	"bytes"
	"encoding/json"

	"github.com/jamesainslie/ccdisk/pkg/ccdisk/executor"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/history"
	"gopkg.in/yaml.v3"
)

// JSONFormatter writes indented JSON documents. Field names are the
// stable snake_case keys of the underlying types.
type JSONFormatter struct{}

func (f *JSONFormatter) encode(w *bytes.Buffer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(v)
}

// FormatReport writes the scan report without the usage breakdown.
func (f *JSONFormatter) FormatReport(w *bytes.Buffer, r *Report) error {
	return f.encode(w, r.ScanReport)
}

// FormatResult writes the action result.
func (f *JSONFormatter) FormatResult(w *bytes.Buffer, r *executor.Result) error {
	return f.encode(w, r)
}

// FormatHistory writes the history entries as an array.
func (f *JSONFormatter) FormatHistory(w *bytes.Buffer, entries []history.Entry) error {
	if entries == nil {
		entries = []history.Entry{}
	}
	return f.encode(w, entries)
}

// FormatComparison writes the comparison.
func (f *JSONFormatter) FormatComparison(w *bytes.Buffer, c *history.Comparison) error {
	return f.encode(w, c)
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)

// YAMLFormatter writes the same structures as JSONFormatter in YAML.
type YAMLFormatter struct{}

func (f *YAMLFormatter) encode(w *bytes.Buffer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}

// FormatReport writes the scan report without the usage breakdown.
func (f *YAMLFormatter) FormatReport(w *bytes.Buffer, r *Report) error {
	return f.encode(w, r.ScanReport)
}

// FormatResult writes the action result.
func (f *YAMLFormatter) FormatResult(w *bytes.Buffer, r *executor.Result) error {
	return f.encode(w, r)
}

// FormatHistory writes the history entries as a sequence.
func (f *YAMLFormatter) FormatHistory(w *bytes.Buffer, entries []history.Entry) error {
	if entries == nil {
		entries = []history.Entry{}
	}
	return f.encode(w, entries)
}

// FormatComparison writes the comparison.
func (f *YAMLFormatter) FormatComparison(w *bytes.Buffer, c *history.Comparison) error {
	return f.encode(w, c)
}

func init() {
	Register("yaml", func() Formatter {
		return &YAMLFormatter{}
	})
}

// Ensure YAMLFormatter implements Formatter.
var _ Formatter = (*YAMLFormatter)(nil)
