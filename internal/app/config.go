package app

import (
	"io"
	"time"

	"stagehand/internal/containerizer"
	"stagehand/internal/containers"
	"stagehand/internal/formatting"
	"stagehand/internal/images"
)

const (
	// DefaultReadyTimeout bounds the wait for a healthy platform.
	DefaultReadyTimeout = 5 * time.Minute

	// DefaultReadyInterval is the readiness polling interval.
	DefaultReadyInterval = 2 * time.Second

	// DefaultStopTimeout bounds the whole teardown.
	DefaultStopTimeout = 2 * time.Minute
)

// Config holds the application configuration
type Config struct {
	// Debug settings
	Debug  bool
	Silent bool

	// ConfigPath names an integration-tests.json file. When empty the
	// file is searched below ConfigRoot.
	ConfigPath string
	ConfigRoot string

	// RuntimeType selects the container runtime ("docker").
	RuntimeType string

	// ReadyTimeout and ReadyInterval control the readiness wait.
	ReadyTimeout  time.Duration
	ReadyInterval time.Duration

	// Once stops the platform right after the readiness report instead of
	// waiting for a signal.
	Once bool

	// Format of the health report.
	Format formatting.OutputFormat

	// Output receives the health report, LogOutput the logs.
	Output    io.Writer
	LogOutput io.Writer

	// Runtime, Provisioner and Verifier replace the real collaborators.
	Runtime     containerizer.Runtime
	Provisioner containers.Provisioner
	Verifier    images.Verifier
}

// NewConfig creates a new application configuration
func NewConfig(debug bool, configPath, configRoot string) *Config {
	return &Config{
		Debug:         debug,
		ConfigPath:    configPath,
		ConfigRoot:    configRoot,
		ReadyTimeout:  DefaultReadyTimeout,
		ReadyInterval: DefaultReadyInterval,
		Format:        formatting.FormatTable,
	}
}
