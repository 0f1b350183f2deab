package formatting

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"stagehand/internal/config"
	"stagehand/internal/healthcheck"
)

// YAMLFormatter provides YAML output formatting
type YAMLFormatter struct {
	options Options
	out     io.Writer
}

// FormatHealth writes the results wrapped in a report object.
func (f *YAMLFormatter) FormatHealth(results []healthcheck.Result) error {
	return f.write(newHealthReport(results))
}

// FormatImages writes the rows as a YAML sequence.
func (f *YAMLFormatter) FormatImages(rows []ImageRow) error {
	if rows == nil {
		rows = []ImageRow{}
	}
	return f.write(rows)
}

// FormatConfig writes the configuration under a platformConfig key.
func (f *YAMLFormatter) FormatConfig(cfg config.PlatformConfig) error {
	return f.write(map[string]config.PlatformConfig{"platformConfig": cfg})
}

func (f *YAMLFormatter) write(v interface{}) error {
	enc := yaml.NewEncoder(f.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}
