// Package output provides formatters for scan reports, action results and
// scan history in various output formats (pretty, json, yaml).
//
// The package uses a registry pattern so that formatters can be selected
// by name at runtime.
//
// Basic usage:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.FormatReport(&buf, &output.Report{ScanReport: report}); err != nil {
//	    return err
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/jamesainslie/ccdisk/pkg/ccdisk/executor"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/history"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/scan"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
)

// Default is the formatter used when none is selected.
const Default = "pretty"

// Report is a scan report plus the optional disk usage breakdown shown by
// the pretty formatter. Machine-readable formatters emit only the report.
type Report struct {
	*types.ScanReport
	Usage *scan.Usage
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// FormatReport writes a scan report.
	FormatReport(w *bytes.Buffer, r *Report) error

	// FormatResult writes the result of one action.
	FormatResult(w *bytes.Buffer, r *executor.Result) error

	// FormatHistory writes stored scan summaries, newest first.
	FormatHistory(w *bytes.Buffer, entries []history.Entry) error

	// FormatComparison writes the difference between two stored scans.
	FormatComparison(w *bytes.Buffer, c *history.Comparison) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry, replacing any
// formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown output format: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
