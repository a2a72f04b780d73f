// Package output renders finished batches as a table, YAML or JSON.
package output

import (
	"fmt"

	"github.com/jbweber/herd/api/v1alpha1"
)

// Format represents an output format type.
type Format string

const (
	// FormatTable is a human-readable table, one row per target.
	FormatTable Format = "table"
	// FormatYAML is the Batch manifest with its status, as YAML.
	FormatYAML Format = "yaml"
	// FormatJSON is the Batch manifest with its status, as JSON.
	FormatJSON Format = "json"
)

// ValidFormats lists the supported format names.
var ValidFormats = []string{string(FormatTable), string(FormatYAML), string(FormatJSON)}

// Formatter formats batch results for output.
type Formatter interface {
	// FormatBatch formats one finished batch.
	FormatBatch(b *v1alpha1.Batch) (string, error)
}

// Options contains options for formatting output.
type Options struct {
	// Format specifies the output format.
	Format Format
	// NoHeaders omits headers in table format.
	NoHeaders bool
}

// NewFormatter creates a new Formatter based on the specified format.
func NewFormatter(opts Options) (Formatter, error) {
	switch opts.Format {
	case FormatTable:
		return &TableFormatter{NoHeaders: opts.NoHeaders}, nil
	case FormatYAML:
		return &YAMLFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: table, yaml, json)", opts.Format)
	}
}

// ValidateFormat checks if a format string is valid.
func ValidateFormat(format string) error {
	switch Format(format) {
	case FormatTable, FormatYAML, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid format: %s (valid formats: table, yaml, json)", format)
	}
}
