// Package formatting renders command output: health reports, image tables
// and the effective configuration, as a table, JSON or YAML.
package formatting

import (
	"fmt"
	"io"
	"strings"

	"stagehand/internal/config"
	"stagehand/internal/healthcheck"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table" // Rich table output
	FormatJSON  OutputFormat = "json"  // JSON output
	FormatYAML  OutputFormat = "yaml"  // YAML output
)

// ParseFormat maps a --output flag value to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case FormatTable, "":
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use table, json or yaml)", s)
	}
}

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Quiet  bool // Suppress decorative elements
	Color  bool // Enable colored output
}

// ImageRow is one line of the image report.
type ImageRow struct {
	Name     string `json:"name" yaml:"name"`
	Default  string `json:"default,omitempty" yaml:"default,omitempty"`
	Override string `json:"override,omitempty" yaml:"override,omitempty"`
	Resolved string `json:"resolved" yaml:"resolved"`
}

// Formatter writes command output.
type Formatter interface {
	FormatHealth(results []healthcheck.Result) error
	FormatImages(rows []ImageRow) error
	FormatConfig(cfg config.PlatformConfig) error
}

// NewFormatter creates the formatter for options.Format writing to w.
func NewFormatter(options Options, w io.Writer) Formatter {
	switch options.Format {
	case FormatJSON:
		return &JSONFormatter{options: options, out: w}
	case FormatYAML:
		return &YAMLFormatter{options: options, out: w}
	default:
		return &TableFormatter{options: options, out: w}
	}
}
