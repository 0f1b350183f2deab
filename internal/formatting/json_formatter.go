package formatting

import (
	"encoding/json"
	"fmt"
	"io"

	"stagehand/internal/config"
	"stagehand/internal/healthcheck"
)

// JSONFormatter provides JSON output formatting
type JSONFormatter struct {
	options Options
	out     io.Writer
}

// healthReport is the document written for health results.
type healthReport struct {
	Healthy    bool                 `json:"healthy" yaml:"healthy"`
	Containers []healthcheck.Result `json:"containers" yaml:"containers"`
}

func newHealthReport(results []healthcheck.Result) healthReport {
	if results == nil {
		results = []healthcheck.Result{}
	}
	return healthReport{Healthy: healthcheck.AllHealthy(results), Containers: results}
}

// FormatHealth writes the results wrapped in a report object.
func (f *JSONFormatter) FormatHealth(results []healthcheck.Result) error {
	return f.write(newHealthReport(results))
}

// FormatImages writes the rows as a JSON array.
func (f *JSONFormatter) FormatImages(rows []ImageRow) error {
	if rows == nil {
		rows = []ImageRow{}
	}
	return f.write(rows)
}

// FormatConfig writes the configuration in the integration-tests.json
// shape.
func (f *JSONFormatter) FormatConfig(cfg config.PlatformConfig) error {
	return f.write(config.FileConfig{PlatformConfig: &cfg})
}

func (f *JSONFormatter) write(v interface{}) error {
	enc := json.NewEncoder(f.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
