package formatting

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"stagehand/internal/config"
	"stagehand/internal/healthcheck"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
	out     io.Writer
}

// FormatHealth renders one row per container.
func (f *TableFormatter) FormatHealth(results []healthcheck.Result) error {
	if len(results) == 0 {
		f.emptyMessage("No containers running")
		return nil
	}

	t := f.createTable()
	t.AppendHeader(table.Row{f.header("CONTAINER"), f.header("HEALTHY"), f.header("STATUS"), f.header("TIME"), f.header("DETAIL")})

	healthy := 0
	for _, r := range results {
		if r.Healthy {
			healthy++
		}
		status := "-"
		if r.StatusCode != 0 {
			status = fmt.Sprintf("%d", r.StatusCode)
		}
		detail := r.Error
		if detail == "" {
			detail = r.Reason
		}
		t.AppendRow(table.Row{r.Name, f.healthMark(r.Healthy), status, FormatDuration(r.ResponseTime), Truncate(detail, 80)})
	}
	t.Render()

	if !f.options.Quiet {
		fmt.Fprintf(f.out, "\n%s %d/%d healthy\n", f.colorize(text.FgHiBlue, "Total:"), healthy, len(results))
	}
	return nil
}

// FormatImages renders the image catalog.
func (f *TableFormatter) FormatImages(rows []ImageRow) error {
	if len(rows) == 0 {
		f.emptyMessage("No images")
		return nil
	}

	t := f.createTable()
	t.AppendHeader(table.Row{f.header("CONTAINER"), f.header("DEFAULT"), f.header("OVERRIDE"), f.header("RESOLVED")})
	for _, r := range rows {
		override := r.Override
		if override == "" {
			override = "-"
		}
		resolved := r.Resolved
		if r.Override != "" && r.Resolved != r.Override {
			resolved = f.colorize(text.FgYellow, resolved+" (fallback)")
		}
		t.AppendRow(table.Row{r.Name, r.Default, override, resolved})
	}
	t.Render()
	return nil
}

// FormatConfig renders the main settings as key/value pairs.
func (f *TableFormatter) FormatConfig(cfg config.PlatformConfig) error {
	services := cfg.Components.EnabledServices()
	t := f.createTable()
	t.AppendHeader(table.Row{f.header("KEY"), f.header("VALUE")})
	t.AppendRows([]table.Row{
		{"enableLogging", loggingSummary(cfg.EnableLogging)},
		{"importData", cfg.ImportData},
		{"heartbeat.enabled", cfg.Heartbeat.Enabled},
		{"heartbeat.interval", FormatDuration(cfg.Heartbeat.Interval.Duration())},
		{"heartbeat.failureThreshold", cfg.Heartbeat.FailureThreshold},
		{"components.services", strings.Join(services, ", ")},
		{"components.bff", cfg.Components.BFF},
		{"components.ui", cfg.Components.UI},
		{"container", fmt.Sprintf("%d custom", cfg.Container.Len())},
		{"importer.image", cfg.Importer.Image},
		{"importer.timeout", FormatDuration(cfg.Importer.Timeout.Duration())},
	})
	t.Render()
	return nil
}

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(f.out)
	t.SetStyle(table.StyleRounded)
	return t
}

func (f *TableFormatter) header(s string) string {
	return f.colorize(text.FgHiCyan, s)
}

func (f *TableFormatter) healthMark(ok bool) string {
	if ok {
		return f.colorize(text.FgGreen, "yes")
	}
	return f.colorize(text.FgRed, "no")
}

func (f *TableFormatter) colorize(c text.Color, s string) string {
	if !f.options.Color {
		return s
	}
	return c.Sprint(s)
}

func (f *TableFormatter) emptyMessage(message string) {
	fmt.Fprintln(f.out, f.colorize(text.FgYellow, message))
}

func loggingSummary(l config.LoggingSelection) string {
	if len(l.Aliases) > 0 {
		return strings.Join(l.Aliases, ", ")
	}
	if l.All {
		return "all"
	}
	return "off"
}
