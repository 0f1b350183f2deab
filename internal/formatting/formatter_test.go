package formatting

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"stagehand/internal/config"
	"stagehand/internal/healthcheck"
)

var sampleResults = []healthcheck.Result{
	{Name: "keycloak", Healthy: true, ResponseTime: 12 * time.Millisecond, StatusCode: 200},
	{Name: "shell-ui", Healthy: true, Reason: "shell-ui has no health endpoint"},
	{Name: "tenant-svc", Healthy: false, StatusCode: 503, Error: "unexpected status code 503"},
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestTableFormatter_Health(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(Options{Format: FormatTable}, &buf)

	require.NoError(t, f.FormatHealth(sampleResults))

	out := buf.String()
	assert.Contains(t, out, "CONTAINER")
	assert.Contains(t, out, "tenant-svc")
	assert.Contains(t, out, "unexpected status code 503")
	assert.Contains(t, out, "shell-ui has no health endpoint")
	assert.Contains(t, out, "2/3 healthy")
}

func TestTableFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(Options{}, &buf)

	require.NoError(t, f.FormatHealth(nil))
	assert.Equal(t, "No containers running\n", buf.String())
}

func TestTableFormatter_ImagesMarksFallback(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(Options{}, &buf)

	require.NoError(t, f.FormatImages([]ImageRow{
		{Name: "postgres", Default: "postgres:16", Resolved: "postgres:16"},
		{Name: "shell-ui", Default: "ui:main", Override: "ui:broken", Resolved: "ui:main"},
	}))

	lines := strings.Split(buf.String(), "\n")
	var uiLine string
	for _, l := range lines {
		if strings.Contains(l, "shell-ui") {
			uiLine = l
		}
	}
	assert.Contains(t, uiLine, "(fallback)")
	assert.NotContains(t, buf.String(), "postgres:16 (fallback)")
}

func TestJSONFormatter_Health(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(Options{Format: FormatJSON}, &buf)

	require.NoError(t, f.FormatHealth(sampleResults))

	var report struct {
		Healthy    bool                 `json:"healthy"`
		Containers []healthcheck.Result `json:"containers"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.False(t, report.Healthy)
	assert.Equal(t, sampleResults, report.Containers)
}

func TestJSONFormatter_ConfigIsValidFile(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(Options{Format: FormatJSON}, &buf)

	require.NoError(t, f.FormatConfig(config.Default()))

	v, err := config.NewValidator(nil)
	require.NoError(t, err)
	result := v.Validate(buf.Bytes())
	assert.True(t, result.Valid, "%v", result.Errors)
}

func TestYAMLFormatter_Config(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(Options{Format: FormatYAML}, &buf)
	cfg := config.Default()
	cfg.EnableLogging = config.LogOnly("keycloak-app")

	require.NoError(t, f.FormatConfig(cfg))

	var doc map[string]map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	pc := doc["platformConfig"]
	require.NotNil(t, pc)
	assert.Equal(t, []interface{}{"keycloak-app"}, pc["enableLogging"])
	assert.Equal(t, false, pc["importData"])
}
